package catalog

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// stubClient serves canned documents and counts calls.
type stubClient struct {
	api.Client

	mu sync.Mutex

	full    *api.BooksDocument
	fullErr error

	page    *api.BooksDocument
	pageErr error

	authors    *api.AuthorsDocument
	authorsErr error

	authorRecords map[string]*api.AuthorRecord

	terms    *api.CategoriesDocument
	termsErr error

	pubs map[string]*api.PublicationDocument
	cats map[string]*api.CategoryDocument
	imgs map[string]*api.FileDocument

	fullCalls int32
}

func notFound() error { return &api.Error{Message: "Not Found", Status: 404} }

func (c *stubClient) BooksFull(context.Context) (*api.BooksDocument, error) {
	atomic.AddInt32(&c.fullCalls, 1)
	if c.fullErr != nil {
		return nil, c.fullErr
	}
	if c.full == nil {
		return &api.BooksDocument{}, nil
	}
	return c.full, nil
}

func (c *stubClient) BooksPage(context.Context, int, int) (*api.BooksDocument, error) {
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	if c.page == nil {
		return &api.BooksDocument{}, nil
	}
	return c.page, nil
}

func (c *stubClient) Book(_ context.Context, uuid string) (*api.BookDocument, error) {
	for i := range c.page.Data {
		if c.page.Data[i].ID == uuid {
			return &api.BookDocument{Data: &c.page.Data[i]}, nil
		}
	}
	return nil, notFound()
}

func (c *stubClient) Authors(context.Context) (*api.AuthorsDocument, error) {
	if c.authorsErr != nil {
		return nil, c.authorsErr
	}
	if c.authors == nil {
		return &api.AuthorsDocument{}, nil
	}
	return c.authors, nil
}

func (c *stubClient) AuthorByInternalID(_ context.Context, id string) (*api.AuthorRecord, error) {
	if rec, ok := c.authorRecords[id]; ok {
		return rec, nil
	}
	return nil, notFound()
}

func (c *stubClient) CategoryTerms(context.Context) (*api.CategoriesDocument, error) {
	if c.termsErr != nil {
		return nil, c.termsErr
	}
	if c.terms == nil {
		return &api.CategoriesDocument{}, nil
	}
	return c.terms, nil
}

func (c *stubClient) BookPublication(_ context.Context, uuid string) (*api.PublicationDocument, error) {
	if doc, ok := c.pubs[uuid]; ok {
		return doc, nil
	}
	return nil, notFound()
}

func (c *stubClient) BookCategory(_ context.Context, uuid string) (*api.CategoryDocument, error) {
	if doc, ok := c.cats[uuid]; ok {
		return doc, nil
	}
	return nil, notFound()
}

func (c *stubClient) BookFeaturedImage(_ context.Context, uuid string) (*api.FileDocument, error) {
	if doc, ok := c.imgs[uuid]; ok {
		return doc, nil
	}
	return nil, notFound()
}

func bookResource(uuid, title, isbn string, authorIDs ...string) api.BookResource {
	b := api.BookResource{
		ID:            uuid,
		Relationships: map[string]api.Relationship{},
	}
	b.Attributes.Title = title
	b.Attributes.ISBN = api.FlexString(isbn)

	var ids api.ResourceIdentifiers
	for _, id := range authorIDs {
		ri := api.ResourceIdentifier{Type: "user--user"}
		ri.Meta.DrupalInternalTargetID = api.FlexString(id)
		ids = append(ids, ri)
	}
	if len(ids) > 0 {
		b.Relationships["uid"] = api.Relationship{Data: ids}
	}
	return b
}

func fullResource(uuid, copies, issued string) api.BookResource {
	b := api.BookResource{ID: uuid}
	b.Attributes.Copies = api.FlexString(copies)
	b.Attributes.IssuedCount = api.FlexString(issued)
	return b
}

func authorsDoc(pairs map[string]string) *api.AuthorsDocument {
	doc := &api.AuthorsDocument{}
	for id, name := range pairs {
		a := api.AuthorResource{ID: "uuid-" + id}
		a.Attributes.DrupalInternalID = api.FlexString(id)
		a.Attributes.Title = name
		doc.Data = append(doc.Data, a)
	}
	return doc
}

func newTestCatalog(client *stubClient) *Catalog {
	return New(client, "https://lib.example.com", 12, testLogger())
}

func TestAvailabilityDerivedFromSecondaryFeed(t *testing.T) {
	client := &stubClient{
		full: &api.BooksDocument{Data: []api.BookResource{
			fullResource("b1", "5", "2"),
			fullResource("b2", "3", "3"),
			fullResource("b3", "2", "7"),
		}},
		page: &api.BooksDocument{Data: []api.BookResource{
			bookResource("b1", "Alpha", ""),
			bookResource("b2", "Beta", ""),
			bookResource("b3", "Gamma", ""),
		}},
	}

	books, err := newTestCatalog(client).GetBooks(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, 3, books[0].BooksAvailable)
	assert.Equal(t, models.StatusAvailable, books[0].Status)

	assert.Equal(t, 0, books[1].BooksAvailable)
	assert.Equal(t, models.StatusBorrowed, books[1].Status)

	// issued beyond copies clamps at zero
	assert.Equal(t, 0, books[2].BooksAvailable)
	assert.Equal(t, models.StatusBorrowed, books[2].Status)
}

func TestAvailabilityFallsBackToPageAttributes(t *testing.T) {
	withCopies := bookResource("b1", "Alpha", "")
	withCopies.Attributes.Copies = api.FlexString("4")

	client := &stubClient{
		fullErr: &api.Error{Message: "boom", Status: 500},
		page: &api.BooksDocument{Data: []api.BookResource{
			withCopies,
			bookResource("b2", "Beta", ""),
		}},
	}

	books, err := newTestCatalog(client).GetBooks(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, 4, books[0].Copies)
	assert.Equal(t, 4, books[0].BooksAvailable)
	assert.Equal(t, 0, books[0].BooksIssued)

	// no copies attribute at all: assume a single available copy
	assert.Equal(t, 1, books[1].Copies)
	assert.Equal(t, 1, books[1].BooksAvailable)
}

func TestAvailabilityFeedLoadedOnce(t *testing.T) {
	client := &stubClient{
		page: &api.BooksDocument{Data: []api.BookResource{bookResource("b1", "Alpha", "")}},
	}
	cat := newTestCatalog(client)

	_, err := cat.GetBooks(context.Background(), Query{})
	require.NoError(t, err)
	_, err = cat.GetBooks(context.Background(), Query{})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&client.fullCalls))

	cat.Clear()
	_, err = cat.GetBooks(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&client.fullCalls))
}

func TestAuthorNamesJoinedWithFallback(t *testing.T) {
	client := &stubClient{
		authors: authorsDoc(map[string]string{"7": "Ann Smith", "8": "Bob Jones"}),
		page: &api.BooksDocument{Data: []api.BookResource{
			bookResource("b1", "Alpha", "", "7", "8"),
			bookResource("b2", "Beta", "", "99"),
			bookResource("b3", "Gamma", ""),
		}},
	}

	books, err := newTestCatalog(client).GetBooks(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, "Ann Smith, Bob Jones", books[0].Author)
	assert.Equal(t, "Unknown Author", books[1].Author)
	assert.Equal(t, "Unknown Author", books[2].Author)
}

func TestAuthorProbeFallback(t *testing.T) {
	client := &stubClient{
		authorsErr: &api.Error{Message: "forbidden", Status: 403},
		authorRecords: map[string]*api.AuthorRecord{
			"7": {Title: api.Field{{Value: []byte(`"Ann Smith"`)}}},
		},
		page: &api.BooksDocument{Data: []api.BookResource{
			bookResource("b1", "Alpha", "", "7"),
		}},
	}

	books, err := newTestCatalog(client).GetBooks(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Ann Smith", books[0].Author)
}

func TestPageLocalFiltering(t *testing.T) {
	client := &stubClient{
		authors: authorsDoc(map[string]string{"1": "Ann Smith", "2": "Bob Jones"}),
		page: &api.BooksDocument{Data: []api.BookResource{
			bookResource("b1", "Go in Action", "111-222", "1"),
			bookResource("b2", "Learning Python", "333-444", "2"),
			bookResource("b3", "The Go Programming Language", "555-666", "2"),
		}},
	}
	cat := newTestCatalog(client)
	ctx := context.Background()

	byTitle, err := cat.GetBooks(ctx, Query{Search: "go", SearchField: "title"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 2)

	byAuthor, err := cat.GetBooks(ctx, Query{Search: "ann", SearchField: "author"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Go in Action", byAuthor[0].Title)

	byISBN, err := cat.GetBooks(ctx, Query{Search: "333", SearchField: "isbn"})
	require.NoError(t, err)
	require.Len(t, byISBN, 1)
	assert.Equal(t, "Learning Python", byISBN[0].Title)

	all, err := cat.GetBooks(ctx, Query{Search: "555"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "The Go Programming Language", all[0].Title)

	none, err := cat.GetBooks(ctx, Query{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)

	byAuthorFilter, err := cat.GetBooks(ctx, Query{Author: "bob"})
	require.NoError(t, err)
	assert.Len(t, byAuthorFilter, 2)
}

func TestCategoryFilterSkipsBlankCategories(t *testing.T) {
	client := &stubClient{
		page: &api.BooksDocument{Data: []api.BookResource{
			bookResource("b1", "Alpha", ""),
			bookResource("b2", "Beta", ""),
		}},
	}

	books, err := newTestCatalog(client).GetBooks(context.Background(), Query{Category: "Fiction"})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCategoriesFromTaxonomy(t *testing.T) {
	terms := &api.CategoriesDocument{}
	for _, name := range []string{"Fiction", "NULL", "", "Science"} {
		var term api.CategoryResource
		term.Attributes.Name = name
		terms.Data = append(terms.Data, term)
	}
	client := &stubClient{terms: terms}

	names, err := newTestCatalog(client).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fiction", "Science"}, names)
}

func TestCategoriesFallBackToDefaults(t *testing.T) {
	client := &stubClient{
		termsErr: &api.Error{Message: "boom", Status: 500},
		page:     &api.BooksDocument{},
	}

	names, err := newTestCatalog(client).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultCategories, names)
	assert.Len(t, names, 10)
}

func TestGetBookResolvesSingleBook(t *testing.T) {
	client := &stubClient{
		authors: authorsDoc(map[string]string{"1": "Ann Smith"}),
		page: &api.BooksDocument{Data: []api.BookResource{
			bookResource("b1", "Alpha", "111", "1"),
		}},
	}

	book, err := newTestCatalog(client).GetBook(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", book.Title)
	assert.Equal(t, "Ann Smith", book.Author)

	_, err = newTestCatalog(client).GetBook(context.Background(), "missing")
	require.Error(t, err)
}

func TestCacheCoalescesConcurrentLoads(t *testing.T) {
	c := newCache[string]()
	var calls int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.getOrLoad(context.Background(), "k", func(context.Context) (string, error) {
				atomic.AddInt32(&calls, 1)
				return "v", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
