package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/libkeeper/internal/client/catalog"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
)

// searchFields are the accepted first arguments of the search command.
var searchFields = map[string]bool{"title": true, "author": true, "isbn": true, "all": true}

// Books lists one catalog page. An optional argument selects the page,
// starting at 1.
func (a *App) Books(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			printlnFn("Usage: books [page]")
			return nil
		}
		page = n
	}

	books, err := a.catalog.GetBooks(ctx, catalog.Query{
		Limit:  a.config.PageLimit,
		Offset: (page - 1) * a.config.PageLimit,
	})
	if err != nil {
		printlnFn("Failed to fetch books:", err.Error())
		return err
	}

	a.printBookList(books, page)
	return nil
}

// Search filters the current catalog page. The first argument may name
// the field to match (title, author, isbn, all); the rest is the term.
func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: search [title|author|isbn|all] <term>")
		return nil
	}

	field := "all"
	if searchFields[args[0]] && len(args) > 1 {
		field = args[0]
		args = args[1:]
	}

	term := args[0]
	for _, extra := range args[1:] {
		term += " " + extra
	}

	books, err := a.catalog.GetBooks(ctx, catalog.Query{
		Search:      term,
		SearchField: field,
		Limit:       a.config.PageLimit,
	})
	if err != nil {
		printlnFn("Search failed:", err.Error())
		return err
	}

	if len(books) == 0 {
		printlnFn("No books matched.")
		a.lastBooks = nil
		return nil
	}

	a.printBookList(books, 1)
	return nil
}

// Show displays the details of a book from the last listing.
func (a *App) Show(ctx context.Context, args []string) error {
	book, ok := a.bookFromArgs(args, "show")
	if !ok {
		return nil
	}

	detailed, err := a.catalog.GetBook(ctx, book.ID)
	if err != nil {
		printlnFn("Failed to fetch book:", err.Error())
		return err
	}

	printlnFn("Title:    ", detailed.Title)
	printlnFn("Author:   ", detailed.Author)
	printlnFn("ISBN:     ", detailed.ISBN)
	printlnFn("Publisher:", detailed.Publisher)
	if detailed.Category != "" {
		printlnFn("Category: ", detailed.Category)
	}
	if detailed.Price != "" {
		printlnFn("Price:    ", detailed.Price)
	}
	printlnFn("Status:   ", detailed.Status)
	printlnFn(fmt.Sprintf("Copies:    %d total, %d available, %d issued", detailed.Copies, detailed.BooksAvailable, detailed.BooksIssued))
	if detailed.CoverImageURL != "" {
		printlnFn("Cover:    ", detailed.CoverImageURL)
	}
	if detailed.Description != "" {
		printlnFn("")
		printlnFn(detailed.Description)
	}
	return nil
}

// Reserve requests a book from the last listing.
func (a *App) Reserve(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first.")
		return nil
	}

	book, ok := a.bookFromArgs(args, "reserve")
	if !ok {
		return nil
	}

	result := a.borrow.Reserve(ctx, a.client.UID(), book.ID)
	printlnFn(result.Message)
	return nil
}

func (a *App) Categories(ctx context.Context) error {
	names, err := a.catalog.Categories(ctx)
	if err != nil {
		printlnFn("Failed to fetch categories:", err.Error())
		return err
	}
	for _, name := range names {
		printlnFn("-", name)
	}
	return nil
}

// bookFromArgs resolves a row number from the last listing, or a raw
// book UUID.
func (a *App) bookFromArgs(args []string, usage string) (*models.Book, bool) {
	if len(args) == 0 {
		printlnFn("Usage:", usage, "<n>")
		return nil, false
	}

	if n, err := strconv.Atoi(args[0]); err == nil {
		if len(a.lastBooks) == 0 {
			printlnFn("Run 'books' first.")
			return nil, false
		}
		if n < 1 || n > len(a.lastBooks) {
			printlnFn("No such row:", n)
			return nil, false
		}
		return &a.lastBooks[n-1], true
	}

	return &models.Book{ID: args[0]}, true
}

func (a *App) printBookList(books []models.Book, page int) {
	a.lastBooks = books

	printlnFn(fmt.Sprintf("Page %d (%d books):", page, len(books)))
	for i, b := range books {
		availability := b.Status
		if b.Status == models.StatusAvailable {
			availability = fmt.Sprintf("%s (%d)", b.Status, b.BooksAvailable)
		}
		printlnFn(fmt.Sprintf("%2d. %s - %s [%s]", i+1, b.Title, b.Author, availability))
	}
}
