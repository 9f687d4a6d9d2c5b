package catalog

import (
	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
)

func newNotFound(msg string) error {
	return &api.Error{Message: msg, Status: 404}
}

// transform denormalizes one book resource against the entity caches.
// Availability comes from the unfiltered feed when present; otherwise the
// page's own copies attribute is trusted with nothing issued.
func (c *Catalog) transform(b *api.BookResource) models.Book {
	title := orDefault(b.Attributes.Title, "Unknown Title")

	var copies, issued int
	if a, ok := c.availability.get(b.ID); ok {
		copies = a.Copies
		issued = a.Issued
	} else {
		copies = atoiOr(b.Attributes.Copies.String(), 0)
		if copies == 0 {
			copies = 1
		}
		issued = 0
	}
	available := copies - issued
	if available < 0 {
		available = 0
	}

	status := models.StatusBorrowed
	if available > 0 {
		status = models.StatusAvailable
	}

	publisher := "Unknown Publisher"
	if id := b.PublicationID(); id != "" {
		if pub, ok := c.publications.get(id); ok && pub.Title != "" {
			publisher = pub.Title
		}
	}

	category := ""
	if id := b.CategoryID(); id != "" {
		if cat, ok := c.categories.get(id); ok && cat.Title != "" && cat.Title != "NULL" {
			category = cat.Title
		}
	}

	authorIDs := b.AuthorIDs()
	author := "Unknown Author"
	if len(authorIDs) > 0 {
		var names []string
		for _, id := range authorIDs {
			if a, ok := c.authors.get(id); ok && a.Title != "" {
				names = append(names, a.Title)
			}
		}
		if len(names) > 0 {
			author = joinNames(names)
		}
	}

	image, _ := c.images.get(b.ID)

	return models.Book{
		ID:             b.ID,
		Title:          title,
		Author:         author,
		AuthorIDs:      authorIDs,
		ISBN:           b.Attributes.ISBN.String(),
		Category:       category,
		Status:         status,
		Description:    b.Attributes.Details.Text(),
		CoverImageURL:  image,
		Publisher:      publisher,
		Price:          b.Attributes.Price.String(),
		Copies:         copies,
		BooksAvailable: available,
		BooksIssued:    issued,
	}
}

func joinNames(names []string) string {
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
