package flag

import (
	"testing"
	"time"
)

func TestFlagDocumentRoundTrip(t *testing.T) {
	desc := "experimental checkout flow"
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	f := &Flag{
		ID:             "5f7c1a2b-0000-4000-8000-000000000001",
		Name:           "new-checkout",
		Value:          true,
		Desc:           &desc,
		ExpirationDate: &exp,
		DateCreated:    created,
	}

	got := documentToFlag(flagToDocument(f))
	if got.ID != f.ID || got.Name != f.Name || got.Value != f.Value {
		t.Errorf("round trip changed identity fields: got %+v", got)
	}
	if got.Desc == nil || *got.Desc != desc {
		t.Errorf("round trip lost desc: got %v", got.Desc)
	}
	if got.ExpirationDate == nil || !got.ExpirationDate.Equal(exp) {
		t.Errorf("round trip lost expiration: got %v", got.ExpirationDate)
	}
	if !got.DateCreated.Equal(created) {
		t.Errorf("round trip changed date created: got %v", got.DateCreated)
	}
}

func TestFlagDocumentRoundTrip_OptionalFieldsNil(t *testing.T) {
	f := &Flag{
		ID:          "5f7c1a2b-0000-4000-8000-000000000002",
		Name:        "bare",
		Value:       false,
		DateCreated: time.Now().UTC(),
	}

	got := documentToFlag(flagToDocument(f))
	if got.Desc != nil {
		t.Errorf("nil desc became %v", got.Desc)
	}
	if got.ExpirationDate != nil {
		t.Errorf("nil expiration became %v", got.ExpirationDate)
	}
}

func TestFlagDocumentIDMapping(t *testing.T) {
	f := &Flag{ID: "abc", Name: "n", DateCreated: time.Now().UTC()}
	doc := flagToDocument(f)
	if doc.ID != "abc" {
		t.Errorf("document id = %q, want abc", doc.ID)
	}
}
