// Package catalog aggregates the upstream's fragmented book data into the
// flat records the CLI renders. Books, availability, authors, publishers,
// categories and cover images all come from different endpoints; the
// catalog caches each entity type and coalesces concurrent fetches.
package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// imageWorkers caps the cover image fan-out per page.
const imageWorkers = 8

// relationshipFetchLimit bounds how many books per page get their
// publisher and category resolved eagerly.
const relationshipFetchLimit = 10

// authorProbeIDs are tried one by one when the bulk author listing is not
// accessible on the upstream.
var authorProbeIDs = []string{"7", "8", "13", "1", "2", "3", "4", "5", "6", "9", "10", "11", "12", "14", "15"}

// defaultCategories is the last-resort category list when neither the
// taxonomy nor the books yield any.
var defaultCategories = []string{
	"Fiction",
	"Non-Fiction",
	"Science",
	"History",
	"Biography",
	"Technology",
	"Business",
	"Arts",
	"Philosophy",
	"Religion",
}

// availability is the copies/issued pair from the unfiltered book feed.
type availability struct {
	Copies int
	Issued int
}

// Query narrows a catalog page. Search, category and author filters apply
// to the fetched page only, after aggregation.
type Query struct {
	Search      string
	SearchField string // title, author, isbn or all
	Category    string
	Author      string
	Limit       int
	Offset      int
}

type Catalog struct {
	client    api.Client
	baseURL   string
	pageLimit int
	logger    logging.Logger

	availability *cache[availability]        // by book UUID
	authors      *cache[models.Author]       // by internal author ID
	publications *cache[models.Publication]  // by internal publication ID
	categories   *cache[models.Category]     // by internal term ID
	images       *cache[string]              // absolute URL by book UUID
	bookPubs     *cache[models.Publication]  // by book UUID
	bookCats     *cache[models.Category]     // by book UUID

	mu                 sync.Mutex
	availabilityLoaded bool
	authorsLoaded      bool
	loadGroup          singleflight.Group
}

func New(client api.Client, baseURL string, pageLimit int, logger logging.Logger) *Catalog {
	return &Catalog{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		pageLimit:    pageLimit,
		logger:       logger.With("module", "catalog"),
		availability: newCache[availability](),
		authors:      newCache[models.Author](),
		publications: newCache[models.Publication](),
		categories:   newCache[models.Category](),
		images:       newCache[string](),
		bookPubs:     newCache[models.Publication](),
		bookCats:     newCache[models.Category](),
	}
}

// GetBooks fetches one page of books and resolves their relationships
// against the entity caches. Auxiliary data failures degrade the result
// instead of failing the page; only the page fetch itself is fatal.
func (c *Catalog) GetBooks(ctx context.Context, q Query) ([]models.Book, error) {
	if err := c.ensureAvailability(ctx); err != nil {
		c.logger.Warn(ctx, "availability feed failed, falling back to page attributes", "error", err.Error())
	}
	if err := c.ensureAuthors(ctx); err != nil {
		c.logger.Warn(ctx, "author loading failed", "error", err.Error())
	}

	limit := q.Limit
	if limit <= 0 {
		limit = c.pageLimit
	}

	doc, err := c.client.BooksPage(ctx, limit, q.Offset)
	if err != nil {
		return nil, err
	}

	uuids := make([]string, 0, len(doc.Data))
	for _, b := range doc.Data {
		if b.ID != "" {
			uuids = append(uuids, b.ID)
		}
	}

	rel := uuids
	if len(rel) > relationshipFetchLimit {
		rel = rel[:relationshipFetchLimit]
	}
	c.loadPublications(ctx, rel)
	c.loadCategories(ctx, rel)
	c.loadImages(ctx, uuids)

	books := make([]models.Book, 0, len(doc.Data))
	for i := range doc.Data {
		books = append(books, c.transform(&doc.Data[i]))
	}

	return applyFilters(books, q), nil
}

// GetBook resolves a single book by its UUID.
func (c *Catalog) GetBook(ctx context.Context, uuid string) (*models.Book, error) {
	if err := c.ensureAvailability(ctx); err != nil {
		c.logger.Warn(ctx, "availability feed failed", "error", err.Error())
	}
	if err := c.ensureAuthors(ctx); err != nil {
		c.logger.Warn(ctx, "author loading failed", "error", err.Error())
	}

	doc, err := c.client.Book(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if doc.Data == nil {
		return nil, newNotFound("book not found")
	}

	ids := []string{uuid}
	c.loadPublications(ctx, ids)
	c.loadCategories(ctx, ids)
	c.loadImages(ctx, ids)

	book := c.transform(doc.Data)
	return &book, nil
}

// BookInternalID maps a book UUID to the numeric ID the legacy
// reservation endpoint expects.
func (c *Catalog) BookInternalID(ctx context.Context, uuid string) (string, string, error) {
	doc, err := c.client.Book(ctx, uuid)
	if err != nil {
		return "", "", err
	}
	if doc.Data == nil {
		return "", "", newNotFound("book not found")
	}
	id := doc.Data.Attributes.DrupalInternalID.String()
	if id == "" {
		return "", "", newNotFound("book internal ID not found")
	}
	return id, doc.Data.Attributes.Title, nil
}

// Authors returns every author known to the cache, loading the bulk feed
// first if needed.
func (c *Catalog) Authors(ctx context.Context) ([]models.Author, error) {
	if err := c.ensureAuthors(ctx); err != nil {
		return nil, err
	}
	return c.authors.values(), nil
}

// Categories returns the category names, trying cache, then the taxonomy
// endpoint, then deriving them from the books, then the built-in defaults.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	if cached := c.categories.values(); len(cached) > 0 {
		names := categoryNames(cached)
		if len(names) > 0 {
			return names, nil
		}
	}

	if doc, err := c.client.CategoryTerms(ctx); err == nil {
		names := make([]string, 0, len(doc.Data))
		for _, term := range doc.Data {
			if n := term.Attributes.Name; n != "" && n != "NULL" {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			return names, nil
		}
	} else {
		c.logger.Warn(ctx, "taxonomy endpoint failed", "error", err.Error())
	}

	if books, err := c.GetBooks(ctx, Query{Limit: 1000}); err == nil {
		seen := map[string]bool{}
		var names []string
		for _, b := range books {
			if b.Category != "" && b.Category != "NULL" && !seen[b.Category] {
				seen[b.Category] = true
				names = append(names, b.Category)
			}
		}
		if len(names) > 0 {
			return names, nil
		}
	} else {
		c.logger.Warn(ctx, "category extraction from books failed", "error", err.Error())
	}

	return defaultCategories, nil
}

// Clear drops every cache, typically on logout.
func (c *Catalog) Clear() {
	c.availability.clear()
	c.authors.clear()
	c.publications.clear()
	c.categories.clear()
	c.images.clear()
	c.bookPubs.clear()
	c.bookCats.clear()

	c.mu.Lock()
	c.availabilityLoaded = false
	c.authorsLoaded = false
	c.mu.Unlock()
}

// ensureAvailability loads the unfiltered book feed once; concurrent
// callers share the same flight.
func (c *Catalog) ensureAvailability(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.availabilityLoaded
	c.mu.Unlock()
	if loaded {
		return nil
	}

	_, err, _ := c.loadGroup.Do("availability", func() (any, error) {
		doc, err := c.client.BooksFull(ctx)
		if err != nil {
			return nil, err
		}
		for _, b := range doc.Data {
			if b.ID == "" {
				continue
			}
			c.availability.put(b.ID, availability{
				Copies: atoiOr(b.Attributes.Copies.String(), 0),
				Issued: atoiOr(b.Attributes.IssuedCount.String(), 0),
			})
		}
		c.mu.Lock()
		c.availabilityLoaded = true
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// ensureAuthors loads the bulk author listing; when that is not
// accessible it probes the known author IDs one by one.
func (c *Catalog) ensureAuthors(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.authorsLoaded
	c.mu.Unlock()
	if loaded {
		return nil
	}

	_, err, _ := c.loadGroup.Do("authors", func() (any, error) {
		count := 0
		if doc, err := c.client.Authors(ctx); err == nil {
			for _, a := range doc.Data {
				id := a.Attributes.DrupalInternalID.String()
				if id == "" {
					continue
				}
				c.authors.put(id, models.Author{
					ID:          id,
					UUID:        a.ID,
					Title:       orDefault(a.Attributes.Title, "Unknown Author"),
					Description: a.Attributes.TextLong.Text(),
					Created:     a.Attributes.Created,
				})
				count++
			}
		} else {
			c.logger.Warn(ctx, "bulk author listing failed, probing individual IDs", "error", err.Error())
		}

		if count == 0 {
			for _, id := range authorProbeIDs {
				rec, err := c.client.AuthorByInternalID(ctx, id)
				if err != nil {
					continue
				}
				c.authors.put(id, models.Author{
					ID:          id,
					UUID:        rec.UUID.First(),
					Title:       orDefault(rec.Title.First(), "Unknown Author"),
					Description: rec.TextLong.FirstProcessed(),
					Created:     rec.Created.First(),
				})
			}
		}

		c.mu.Lock()
		c.authorsLoaded = true
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

func (c *Catalog) loadPublications(ctx context.Context, bookUUIDs []string) {
	for _, uuid := range bookUUIDs {
		uuid := uuid
		_, err := c.bookPubs.getOrLoad(ctx, uuid, func(ctx context.Context) (models.Publication, error) {
			doc, err := c.client.BookPublication(ctx, uuid)
			if err != nil || doc.Data == nil {
				if err == nil {
					err = newNotFound("no publication linked")
				}
				return models.Publication{}, err
			}
			pub := models.Publication{
				ID:          doc.Data.Attributes.DrupalInternalID.String(),
				Title:       doc.Data.Attributes.Title,
				Description: doc.Data.Attributes.TextLong.Text(),
			}
			if pub.ID != "" {
				c.publications.put(pub.ID, pub)
			}
			return pub, nil
		})
		if err != nil {
			c.logger.Debug(ctx, "publication lookup failed", "book", uuid, "error", err.Error())
		}
	}
}

func (c *Catalog) loadCategories(ctx context.Context, bookUUIDs []string) {
	for _, uuid := range bookUUIDs {
		uuid := uuid
		_, err := c.bookCats.getOrLoad(ctx, uuid, func(ctx context.Context) (models.Category, error) {
			doc, err := c.client.BookCategory(ctx, uuid)
			if err != nil || doc.Data == nil {
				if err == nil {
					err = newNotFound("no category linked")
				}
				return models.Category{}, err
			}
			cat := models.Category{
				ID:          doc.Data.Attributes.DrupalInternalTID.String(),
				Title:       doc.Data.Attributes.Name,
				Description: doc.Data.Attributes.Description.Text(),
			}
			if cat.ID != "" {
				c.categories.put(cat.ID, cat)
			}
			return cat, nil
		})
		if err != nil {
			c.logger.Debug(ctx, "category lookup failed", "book", uuid, "error", err.Error())
		}
	}
}

// loadImages fetches cover images for the page with a bounded fan-out.
// Failures are swallowed: a page renders fine without covers.
func (c *Catalog) loadImages(ctx context.Context, bookUUIDs []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(imageWorkers)

	for _, uuid := range bookUUIDs {
		uuid := uuid
		g.Go(func() error {
			_, err := c.images.getOrLoad(ctx, uuid, func(ctx context.Context) (string, error) {
				doc, err := c.client.BookFeaturedImage(ctx, uuid)
				if err != nil {
					return "", err
				}
				if doc.Data == nil || doc.Data.Attributes.URI.URL == "" {
					return "", newNotFound("no featured image")
				}
				u := doc.Data.Attributes.URI.URL
				if !strings.HasPrefix(u, "http") {
					u = c.baseURL + u
				}
				return u, nil
			})
			if err != nil {
				c.logger.Debug(ctx, "image lookup failed", "book", uuid, "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()
}

func categoryNames(cats []models.Category) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Title != "" && c.Title != "NULL" {
			names = append(names, c.Title)
		}
	}
	return names
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
