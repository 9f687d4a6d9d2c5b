package api

import (
	"encoding/json"
	"fmt"
)

// Typed schemas for the legacy Drupal REST endpoints, which wrap every
// field in an array of value objects: `"name": [{"value": "alice"}]`.

// FieldItem is one element of a legacy field array.
type FieldItem struct {
	Value     json.RawMessage `json:"value"`
	Processed string          `json:"processed"`
	Format    string          `json:"format"`
	TargetID  json.RawMessage `json:"target_id"`
}

// Field is a legacy Drupal field: zero or more value objects.
type Field []FieldItem

// rawToString renders a raw JSON scalar as its plain string form.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// First returns the first value of the field as a string, or "".
func (f Field) First() string {
	if len(f) == 0 {
		return ""
	}
	return rawToString(f[0].Value)
}

// FirstProcessed prefers the rendered variant of the first value.
func (f Field) FirstProcessed() string {
	if len(f) == 0 {
		return ""
	}
	if f[0].Processed != "" {
		return f[0].Processed
	}
	return rawToString(f[0].Value)
}

// LoginResponse is the body of POST /web/user/login?_format=json.
type LoginResponse struct {
	CurrentUser struct {
		UID  FlexString `json:"uid"`
		Name string     `json:"name"`
	} `json:"current_user"`
	CSRFToken   string `json:"csrf_token"`
	LogoutToken string `json:"logout_token"`
}

// Validate checks the fields the session layer depends on.
func (r *LoginResponse) Validate() error {
	if r.CurrentUser.UID == "" || r.CurrentUser.Name == "" || r.CSRFToken == "" {
		return fmt.Errorf("invalid login response")
	}
	return nil
}

// AuthorRecord is the legacy /web/lmsbookauthor/{id} representation.
type AuthorRecord struct {
	ID       Field `json:"id"`
	UUID     Field `json:"uuid"`
	Title    Field `json:"title"`
	TextLong Field `json:"text_long"`
	Created  Field `json:"created"`
}

// LoanRecord is one row of /web/borrowed/{uid} and /web/requested/{uid}.
type LoanRecord struct {
	ID           string `json:"id"`
	Lmsbook      string `json:"lmsbook"`
	Created      string `json:"created"`
	IssuedDate   string `json:"requested_book_issued_date"`
	ReturnedDate string `json:"requested_book_returned_date"`
}

// ProfileRecord is the legacy /web/user/{uid} representation.
type ProfileRecord struct {
	UID      Field `json:"uid"`
	UUID     Field `json:"uuid"`
	Name     Field `json:"name"`
	Mail     Field `json:"mail"`
	Timezone Field `json:"timezone"`
	Created  Field `json:"created"`
	Changed  Field `json:"changed"`
}

// ReservationPayload is the fixed-shape body POSTed to the reservation
// endpoint. The lmsbook target is the book's Drupal internal numeric ID,
// not its UUID.
type ReservationPayload struct {
	Title   []ValueItem  `json:"title"`
	UID     []TargetItem `json:"uid"`
	Lmsbook []TargetItem `json:"lmsbook"`
}

type ValueItem struct {
	Value string `json:"value"`
}

type TargetItem struct {
	TargetID string `json:"target_id"`
}

// NewReservationPayload builds the canonical reservation request body.
func NewReservationPayload(uid, bookInternalID string) *ReservationPayload {
	return &ReservationPayload{
		Title:   []ValueItem{{Value: "Request API"}},
		UID:     []TargetItem{{TargetID: uid}},
		Lmsbook: []TargetItem{{TargetID: bookInternalID}},
	}
}
