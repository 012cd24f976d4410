package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxCommentLength = 500

type homeData struct {
	User         *db.User
	Books        []db.Book
	Categories   []db.Category
	Recommended  []db.Book
	Footer       []db.Book
	Query        string
	CategorySlug string
}

// home renders the catalog listing with optional search and category
// filters plus the two recommendation blocks.
func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	categorySlug := r.URL.Query().Get("category")

	books, err := h.Catalog.ListBooks(ctx, query, categorySlug)
	if err != nil {
		if errors.Is(err, repo.ErrCategoryNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, err)
		return
	}

	categories, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}

	user := h.currentUser(r)

	var recommended []db.Book
	if user != nil {
		if recommended, err = h.Recommend.ForUser(ctx, user.ID); err != nil {
			h.serverError(w, err)
			return
		}
	}

	footer, err := h.Recommend.Footer(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "home.html", homeData{
		User:         user,
		Books:        books,
		Categories:   categories,
		Recommended:  recommended,
		Footer:       footer,
		Query:        query,
		CategorySlug: categorySlug,
	})
}

type bookDetailData struct {
	User      *db.User
	Book      *db.Book
	Reviews   []db.Review
	AvgRating float64
	Related   []db.Book
	CanReview bool
	FormError string
}

// bookDetail renders the detail page; POST accepts a review submission
// when the user has a verified purchase and has not reviewed yet.
func (h *Handlers) bookDetail(w http.ResponseWriter, r *http.Request) {
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
	canReview := false
	if user != nil {
		if canReview, err = h.Orders.HasPaidItem(ctx, user.ID, book.ID); err != nil {
			h.serverError(w, err)
			return
		}
	}

	formError := ""
	if r.Method == http.MethodPost && user != nil {
		// Non-buyers forcing a POST just get the page back.
		if !canReview {
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}

		rating, _ := strconv.Atoi(r.FormValue("rating"))
		comment := r.FormValue("comment")

		switch {
		case rating < 1 || rating > 5:
			formError = "Rating must be between 1 and 5."
		case len(comment) > maxCommentLength:
			formError = "Comment must be at most 500 characters."
		default:
			exists, err := h.Reviews.Exists(ctx, user.ID, book.ID)
			if err != nil {
				h.serverError(w, err)
				return
			}
			// Duplicate submissions are a silent no-op.
			if exists {
				http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
				return
			}

			// Bind to the current user and book, ignoring any identity
			// fields the form might carry.
			review := &db.Review{
				BookID:  book.ID,
				UserID:  user.ID,
				Rating:  rating,
				Comment: comment,
			}
			if err := h.Reviews.CreateReview(ctx, review); err != nil {
				h.serverError(w, err)
				return
			}
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}
	} else if r.Method == http.MethodPost {
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
		return
	}

	reviews, err := h.Reviews.ListByBook(ctx, book.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}

	avgRating, err := h.Reviews.AverageForBook(ctx, book.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}

	related, err := h.Catalog.RelatedBooks(ctx, book.CategoryID, book.ID, 4)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "book_detail.html", bookDetailData{
		User:      user,
		Book:      book,
		Reviews:   reviews,
		AvgRating: avgRating,
		Related:   related,
		CanReview: canReview,
		FormError: formError,
	})
}

func (h *Handlers) serverError(w http.ResponseWriter, err error) {
	h.Log.Error("Request failed", zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
