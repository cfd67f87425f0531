package models

// Flag is the API representation of a feature flag.
type Flag struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Value          bool       `json:"value"`
	Desc           *string    `json:"desc,omitempty"`
	ExpirationDate *Timestamp `json:"expirationDate,omitempty"`
	DateCreated    Timestamp  `json:"dateCreated"`
}

// FlagList is the response for flag listing.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagValue is the response for flag evaluation by name.
type FlagValue struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// ExpiresIn is a relative expiration offset supplied at creation.
type ExpiresIn struct {
	// Unit is one of "m", "h", "d", "w".
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

// FlagCreateRequest is the request body for creating a flag.
type FlagCreateRequest struct {
	Name      string     `json:"name"`
	Value     bool       `json:"value"`
	Desc      *string    `json:"desc,omitempty"`
	ExpiresIn *ExpiresIn `json:"expiresIn,omitempty"`
}

// FlagUpdateRequest is the merge-patch request body for updating a flag.
// Absent fields leave the stored attribute untouched.
type FlagUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Value *bool   `json:"value,omitempty"`
	Desc  *string `json:"desc,omitempty"`
}
