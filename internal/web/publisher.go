package web

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type bookFormData struct {
	User       *db.User
	Book       *db.Book
	Categories []db.Category
	IsEdit     bool
	Error      string
}

// addBook lets an authenticated publisher list a new book. Approval is not
// required to list; only the dashboard is approval-gated.
func (h *Handlers) addBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return
	}
	if _, ok := h.publisherProfile(ctx, user.ID); !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	categories, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}
	data := bookFormData{User: user, Categories: categories}

	if r.Method == http.MethodGet {
		h.render(w, "add_book.html", data)
		return
	}

	book, formErr := h.bookFromForm(r, &db.Book{PublisherID: &user.ID})
	if formErr != "" {
		data.Error = formErr
		h.render(w, "add_book.html", data)
		return
	}

	if err := h.Catalog.CreateBook(ctx, book); err != nil {
		h.serverError(w, err)
		return
	}

	go func(book *db.Book) {
		eventCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := h.Events.PublishBookCreated(eventCtx, book.ID, book.Title, book.Author, book.Price); err != nil {
			h.Log.Error("Failed to publish book created event", zap.Uint("book_id", book.ID), zap.Error(err))
		}
	}(book)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// editBook updates a book; only the owning publisher may edit it.
func (h *Handlers) editBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	book, err := h.Catalog.GetBook(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, err)
		return
	}

	user := h.currentUser(r)
	if user == nil || book.PublisherID == nil || *book.PublisherID != user.ID {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	categories, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}
	data := bookFormData{User: user, Book: book, Categories: categories, IsEdit: true}

	if r.Method == http.MethodGet {
		h.render(w, "add_book.html", data)
		return
	}

	updated, formErr := h.bookFromForm(r, book)
	if formErr != "" {
		data.Error = formErr
		h.render(w, "add_book.html", data)
		return
	}

	if err := h.Catalog.UpdateBook(ctx, updated); err != nil {
		h.serverError(w, err)
		return
	}

	go func(book *db.Book) {
		eventCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := h.Events.PublishBookUpdated(eventCtx, book.ID, book.Title); err != nil {
			h.Log.Error("Failed to publish book updated event", zap.Uint("book_id", book.ID), zap.Error(err))
		}
	}(updated)

	http.Redirect(w, r, "/book/"+strconv.FormatUint(uint64(updated.ID), 10)+"/", http.StatusSeeOther)
}

// bookFromForm fills a book from the submitted form. The price field is
// entered in dollars and stored in cents.
func (h *Handlers) bookFromForm(r *http.Request, book *db.Book) (*db.Book, string) {
	title := r.FormValue("title")
	author := r.FormValue("author")
	if title == "" || author == "" {
		return nil, "Title and author are required."
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		return nil, "Price must be a non-negative number."
	}

	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil || stock < 0 {
		return nil, "Stock must be a non-negative integer."
	}

	categoryID, err := strconv.ParseUint(r.FormValue("category"), 10, 64)
	if err != nil {
		return nil, "Choose a category."
	}

	book.Title = title
	book.Author = author
	book.Description = r.FormValue("description")
	book.Price = int64(math.Round(price * 100))
	book.Stock = stock
	book.CategoryID = uint(categoryID)
	book.Category = db.Category{}
	return book, ""
}

type publisherDashboardData struct {
	User  *db.User
	Books []db.Book
	Stats *repo.PublisherStats
}

// publisherDashboard shows the publisher's books and sales aggregates.
// Non-publishers are redirected home; unapproved publishers see a pending
// page instead.
func (h *Handlers) publisherDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return
	}

	profile, ok := h.publisherProfile(ctx, user.ID)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !profile.IsApproved {
		h.render(w, "publisher_pending.html", map[string]interface{}{"User": user})
		return
	}

	books, err := h.Catalog.ListByPublisher(ctx, user.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}

	stats, err := h.Dash.PublisherStats(ctx, user.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "publisher_dashboard.html", publisherDashboardData{
		User:  user,
		Books: books,
		Stats: stats,
	})
}
