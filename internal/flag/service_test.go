package flag_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/flagship/flagship/internal/flag"
)

func newTestService() (*flag.Service, *flag.MemoryRepository) {
	repo := flag.NewMemoryRepository()
	service := flag.NewService(flag.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return service, repo
}

func strPtr(s string) *string { return &s }

func TestService_CreateFlag(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	before := time.Now().UTC()
	f, err := service.CreateFlag(ctx, "beta", true, strPtr("rollout"), flag.ExpirationOffset{})
	if err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}
	after := time.Now().UTC()

	if f.ID == "" {
		t.Error("expected a generated id")
	}
	if f.Name != "beta" || f.Value != true {
		t.Errorf("stored flag = %q/%v, want beta/true", f.Name, f.Value)
	}
	if f.Desc == nil || *f.Desc != "rollout" {
		t.Errorf("desc = %v, want rollout", f.Desc)
	}
	if f.DateCreated.Before(before) || f.DateCreated.After(after) {
		t.Errorf("date created %v outside creation window", f.DateCreated)
	}

	// Default policy: expiration four weeks from creation
	if f.ExpirationDate == nil {
		t.Fatal("expected a default expiration date")
	}
	wantMin := before.AddDate(0, 0, 28)
	wantMax := after.AddDate(0, 0, 28)
	if f.ExpirationDate.Before(wantMin) || f.ExpirationDate.After(wantMax) {
		t.Errorf("expiration %v, want about four weeks from now", *f.ExpirationDate)
	}

	// The stored entity is retrievable
	stored, err := service.GetFlag(ctx, f.ID)
	if err != nil {
		t.Fatalf("failed to get stored flag: %v", err)
	}
	if stored.ID != f.ID {
		t.Errorf("stored id %q, want %q", stored.ID, f.ID)
	}
}

func TestService_CreateFlag_CustomOffset(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	f, err := service.CreateFlag(ctx, "short-lived", true, nil, flag.ExpirationOffset{Unit: flag.UnitHour, Value: 1})
	if err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	if f.ExpirationDate == nil {
		t.Fatal("expected an expiration date")
	}
	until := time.Until(*f.ExpirationDate)
	if until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expiration %v from now, want about one hour", until)
	}
}

func TestService_CreateFlag_DuplicateNamesYieldFreshIDs(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	first, err := service.CreateFlag(ctx, "dup", true, nil, flag.ExpirationOffset{})
	if err != nil {
		t.Fatalf("failed to create first flag: %v", err)
	}
	second, err := service.CreateFlag(ctx, "dup", true, nil, flag.ExpirationOffset{})
	if err != nil {
		t.Fatalf("failed to create second flag: %v", err)
	}

	if first.ID == second.ID {
		t.Error("expected distinct identities for duplicate names")
	}

	for _, id := range []string{first.ID, second.ID} {
		if _, err := service.GetFlag(ctx, id); err != nil {
			t.Errorf("flag %q not retrievable: %v", id, err)
		}
	}

	all, err := service.GetAllFlags(ctx, nil)
	if err != nil {
		t.Fatalf("failed to list flags: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d flags, want 2", len(all))
	}
}

func TestService_IsEnabled(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if _, err := service.CreateFlag(ctx, "on", true, nil, flag.ExpirationOffset{}); err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}
	if _, err := service.CreateFlag(ctx, "off", false, nil, flag.ExpirationOffset{}); err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	enabled, err := service.IsEnabled(ctx, "on")
	if err != nil {
		t.Fatalf("IsEnabled failed: %v", err)
	}
	if !enabled {
		t.Error("expected true for a non-expired true flag")
	}

	enabled, err = service.IsEnabled(ctx, "off")
	if err != nil {
		t.Fatalf("IsEnabled failed: %v", err)
	}
	if enabled {
		t.Error("expected false for a false flag")
	}
}

func TestService_IsEnabled_UnknownName(t *testing.T) {
	service, _ := newTestService()

	_, err := service.IsEnabled(context.Background(), "missing")
	if !errors.Is(err, flag.ErrFlagNotFound) {
		t.Errorf("err = %v, want ErrFlagNotFound", err)
	}
}

func TestService_IsEnabled_ExpirationOverridesValue(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	f, err := service.CreateFlag(ctx, "beta", true, strPtr("rollout"), flag.ExpirationOffset{})
	if err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	// Move the expiration one day into the past
	past := time.Now().UTC().AddDate(0, 0, -1)
	f.ExpirationDate = &past
	if _, err := repo.Update(ctx, f); err != nil {
		t.Fatalf("failed to update flag: %v", err)
	}

	enabled, err := service.IsEnabled(ctx, "beta")
	if err != nil {
		t.Fatalf("IsEnabled failed: %v", err)
	}
	if enabled {
		t.Error("expected expired flag to evaluate to false despite stored value true")
	}
}

func TestService_IsEnabled_NoExpirationNeverExpires(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()

	f := &flag.Flag{
		ID:          "eternal",
		Name:        "eternal",
		Value:       true,
		DateCreated: time.Now().UTC(),
	}
	if err := repo.Store(ctx, f); err != nil {
		t.Fatalf("failed to store flag: %v", err)
	}

	enabled, err := service.IsEnabled(ctx, "eternal")
	if err != nil {
		t.Fatalf("IsEnabled failed: %v", err)
	}
	if !enabled {
		t.Error("expected true for a flag without expiration")
	}
}

func TestService_UpdateFlag_MergesOnlySuppliedFields(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	f, err := service.CreateFlag(ctx, "A", true, strPtr("A"), flag.ExpirationOffset{})
	if err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	updated, err := service.UpdateFlag(ctx, f.ID, flag.FlagUpdate{Name: strPtr("B")})
	if err != nil {
		t.Fatalf("failed to update flag: %v", err)
	}

	if updated.Name != "B" {
		t.Errorf("name = %q, want B", updated.Name)
	}
	if updated.Value != true {
		t.Error("value changed by a name-only patch")
	}
	if updated.Desc == nil || *updated.Desc != "A" {
		t.Errorf("desc = %v, want A; omission must not clear", updated.Desc)
	}
	if updated.ID != f.ID {
		t.Error("id changed by update")
	}
	if !updated.DateCreated.Equal(f.DateCreated) {
		t.Error("date created changed by update")
	}
}

func TestService_UpdateFlag_MissingID(t *testing.T) {
	service, _ := newTestService()

	v := false
	_, err := service.UpdateFlag(context.Background(), "nonexistent-id", flag.FlagUpdate{Value: &v})
	if !errors.Is(err, flag.ErrFlagNotFound) {
		t.Errorf("err = %v, want ErrFlagNotFound", err)
	}
}

func TestService_DeleteFlag_Idempotent(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	f, err := service.CreateFlag(ctx, "doomed", true, nil, flag.ExpirationOffset{})
	if err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	deleted, err := service.DeleteFlag(ctx, f.ID)
	if err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if !deleted {
		t.Error("expected true on first delete")
	}

	deleted, err = service.DeleteFlag(ctx, f.ID)
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if deleted {
		t.Error("expected false on second delete")
	}
}

func TestService_GetAllFlags_NameFilter(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if _, err := service.CreateFlag(ctx, "a", true, nil, flag.ExpirationOffset{}); err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}
	if _, err := service.CreateFlag(ctx, "b", false, nil, flag.ExpirationOffset{}); err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	flags, err := service.GetAllFlags(ctx, strPtr("a"))
	if err != nil {
		t.Fatalf("failed to list flags: %v", err)
	}
	if len(flags) != 1 {
		t.Fatalf("got %d flags, want 1", len(flags))
	}
	if flags[0].Name != "a" {
		t.Errorf("name = %q, want a", flags[0].Name)
	}

	// No match is an empty list, not an error
	flags, err = service.GetAllFlags(ctx, strPtr("missing"))
	if err != nil {
		t.Fatalf("unexpected error for unmatched filter: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("got %d flags, want 0", len(flags))
	}
}

func TestService_DeleteAllFlags(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	if _, err := service.CreateFlag(ctx, "x", true, nil, flag.ExpirationOffset{}); err != nil {
		t.Fatalf("failed to create flag: %v", err)
	}

	if err := service.DeleteAllFlags(ctx); err != nil {
		t.Fatalf("delete all failed: %v", err)
	}

	flags, err := service.GetAllFlags(ctx, nil)
	if err != nil {
		t.Fatalf("failed to list flags: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("got %d flags after delete all, want 0", len(flags))
	}

	// Deleting from an already-empty store still succeeds
	if err := service.DeleteAllFlags(ctx); err != nil {
		t.Errorf("delete all on empty store errored: %v", err)
	}
}
