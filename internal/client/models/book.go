// Package models contains the denormalized domain types the client works
// with after aggregation. They are deliberately flat: the CLI renders them
// directly.
package models

// Book availability statuses.
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
	StatusReserved  = "reserved"
)

// Book is a fully denormalized catalog record: relationship IDs have been
// resolved against the entity caches and availability derived from the
// copies/issued feed.
type Book struct {
	ID             string
	Title          string
	Author         string
	AuthorIDs      []string
	ISBN           string
	Category       string
	Status         string
	Description    string
	CoverImageURL  string
	Publisher      string
	Price          string
	Copies         int
	BooksAvailable int
	BooksIssued    int
}

// Author is a book author looked up by its Drupal internal ID.
type Author struct {
	ID          string
	UUID        string
	Title       string
	Description string
	Created     string
}

// Publication is a publisher entity.
type Publication struct {
	ID          string
	Title       string
	Description string
}

// Category is a taxonomy term attached to books.
type Category struct {
	ID          string
	Title       string
	Description string
}
