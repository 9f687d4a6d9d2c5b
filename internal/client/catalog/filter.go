package catalog

import (
	"strings"

	"github.com/dmitrijs2005/libkeeper/internal/client/models"
)

// applyFilters narrows an aggregated page in place of server-side search:
// the upstream's collection endpoint has no usable filter parameters, so
// matching happens against the fetched page only.
func applyFilters(books []models.Book, q Query) []models.Book {
	out := books

	if q.Search != "" {
		term := strings.ToLower(q.Search)
		field := q.SearchField
		if field == "" {
			field = "all"
		}
		filtered := out[:0:0]
		for _, b := range out {
			title := strings.ToLower(b.Title)
			author := strings.ToLower(b.Author)
			isbn := strings.ToLower(b.ISBN)

			var match bool
			switch field {
			case "title":
				match = strings.Contains(title, term)
			case "author":
				match = strings.Contains(author, term)
			case "isbn":
				match = strings.Contains(isbn, term)
			default:
				match = strings.Contains(title, term) || strings.Contains(isbn, term) || strings.Contains(author, term)
			}
			if match {
				filtered = append(filtered, b)
			}
		}
		out = filtered
	}

	if q.Category != "" && !strings.EqualFold(q.Category, "all") {
		filtered := out[:0:0]
		for _, b := range out {
			if b.Category == "" || b.Category == "NULL" {
				continue
			}
			if strings.EqualFold(b.Category, q.Category) {
				filtered = append(filtered, b)
			}
		}
		out = filtered
	}

	if q.Author != "" {
		term := strings.ToLower(q.Author)
		filtered := out[:0:0]
		for _, b := range out {
			if strings.Contains(strings.ToLower(b.Author), term) {
				filtered = append(filtered, b)
			}
		}
		out = filtered
	}

	return out
}
