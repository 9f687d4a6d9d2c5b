package api

import (
	"encoding/json"
	"fmt"
)

// Typed JSON:API response schemas. Parsing happens once, at the transport
// boundary: a response that does not match the expected shape produces an
// error instead of silently defaulting downstream.

// FlexString decodes a JSON value that may arrive as a string or a number
// (Drupal is inconsistent about this for IDs, prices and ISBNs).
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = FlexString(num.String())
		return nil
	}
	return fmt.Errorf("value %s is neither string nor number", string(data))
}

func (s FlexString) String() string { return string(s) }

// TextLong is Drupal's formatted-text field: raw value plus an optional
// processed (rendered) variant.
type TextLong struct {
	Value     string `json:"value"`
	Processed string `json:"processed"`
}

// Text returns the rendered variant when present, the raw value otherwise.
func (t TextLong) Text() string {
	if t.Processed != "" {
		return t.Processed
	}
	return t.Value
}

// RelationshipMeta carries the secondary numeric ID that legacy endpoints
// key on, distinct from the resource UUID.
type RelationshipMeta struct {
	DrupalInternalTargetID FlexString `json:"drupal_internal__target_id"`
}

// ResourceIdentifier points at a related resource.
type ResourceIdentifier struct {
	Type string           `json:"type"`
	ID   string           `json:"id"`
	Meta RelationshipMeta `json:"meta"`
}

// Relationship holds the data linkage of a JSON:API relationship. Data may
// be a single identifier, a list, or null; it always decodes to a slice.
type Relationship struct {
	Data ResourceIdentifiers `json:"data"`
}

// ResourceIdentifiers decodes one-or-many relationship data uniformly.
type ResourceIdentifiers []ResourceIdentifier

func (r *ResourceIdentifiers) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var many []ResourceIdentifier
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*r = many
		return nil
	}
	var one ResourceIdentifier
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = ResourceIdentifiers{one}
	return nil
}

// BookAttributes is the lmsbook--lmsbook attribute set we request via
// sparse fieldsets.
type BookAttributes struct {
	DrupalInternalID FlexString `json:"drupal_internal__id"`
	Title            string     `json:"title"`
	ISBN             FlexString `json:"isbn"`
	Copies           FlexString `json:"copies"`
	IssuedCount      FlexString `json:"issued_count"`
	Price            FlexString `json:"price"`
	Details          TextLong   `json:"details"`
}

// BookResource is one book row of the JSON:API collection.
type BookResource struct {
	ID            string                  `json:"id"`
	Attributes    BookAttributes          `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
}

// AuthorIDs extracts the Drupal internal author IDs from the uid
// relationship block.
func (b *BookResource) AuthorIDs() []string {
	rel, ok := b.Relationships["uid"]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rel.Data))
	for _, ri := range rel.Data {
		if id := ri.Meta.DrupalInternalTargetID.String(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// relationshipTargetID returns the internal target ID of a to-one
// relationship, or "" when absent.
func (b *BookResource) relationshipTargetID(name string) string {
	rel, ok := b.Relationships[name]
	if !ok || len(rel.Data) == 0 {
		return ""
	}
	return rel.Data[0].Meta.DrupalInternalTargetID.String()
}

// PublicationID returns the internal ID of the book's publisher, if linked.
func (b *BookResource) PublicationID() string {
	return b.relationshipTargetID("lmspublication")
}

// CategoryID returns the internal ID of the book's category term, if linked.
func (b *BookResource) CategoryID() string {
	return b.relationshipTargetID("lmsbook_category")
}

// BooksDocument is a JSON:API collection of books.
type BooksDocument struct {
	Data []BookResource `json:"data"`
}

// BookDocument is a JSON:API single-book response.
type BookDocument struct {
	Data *BookResource `json:"data"`
}

// AuthorAttributes is the lmsbookauthor attribute set.
type AuthorAttributes struct {
	DrupalInternalID FlexString `json:"drupal_internal__id"`
	Title            string     `json:"title"`
	TextLong         TextLong   `json:"text_long"`
	Created          string     `json:"created"`
}

type AuthorResource struct {
	ID         string           `json:"id"`
	Attributes AuthorAttributes `json:"attributes"`
}

type AuthorsDocument struct {
	Data []AuthorResource `json:"data"`
}

// PublicationAttributes describes a publisher entity fetched through the
// book's lmspublication relationship endpoint.
type PublicationAttributes struct {
	DrupalInternalID FlexString `json:"drupal_internal__id"`
	Title            string     `json:"title"`
	TextLong         TextLong   `json:"text_long"`
}

type PublicationResource struct {
	ID         string                `json:"id"`
	Attributes PublicationAttributes `json:"attributes"`
}

type PublicationDocument struct {
	Data *PublicationResource `json:"data"`
}

// CategoryAttributes describes a taxonomy term fetched through the book's
// lmsbook_category relationship endpoint.
type CategoryAttributes struct {
	DrupalInternalTID FlexString `json:"drupal_internal__tid"`
	Name              string     `json:"name"`
	Description       TextLong   `json:"description"`
}

type CategoryResource struct {
	ID         string             `json:"id"`
	Attributes CategoryAttributes `json:"attributes"`
}

type CategoryDocument struct {
	Data *CategoryResource `json:"data"`
}

type CategoriesDocument struct {
	Data []CategoryResource `json:"data"`
}

// FileAttributes describes an uploaded file entity (book cover image).
type FileAttributes struct {
	Filename string `json:"filename"`
	URI      struct {
		Value string `json:"value"`
		URL   string `json:"url"`
	} `json:"uri"`
}

type FileResource struct {
	ID         string         `json:"id"`
	Attributes FileAttributes `json:"attributes"`
}

type FileDocument struct {
	Data *FileResource `json:"data"`
}
