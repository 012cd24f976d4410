package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/shop"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// addToCart increments the quantity for a book by 1. The book is not
// validated here; unresolvable entries are skipped at read time.
func (h *Handlers) addToCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sess := sessionFrom(r)
	sess.Cart.Add(uint(id))
	if err := h.Sessions.SaveCart(r.Context(), sess.ID, sess.Cart); err != nil {
		h.serverError(w, err)
		return
	}

	http.Redirect(w, r, "/cart/", http.StatusSeeOther)
}

// removeFromCart deletes a book's entry; no-op when absent.
func (h *Handlers) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sess := sessionFrom(r)
	sess.Cart.Remove(uint(id))
	if err := h.Sessions.SaveCart(r.Context(), sess.ID, sess.Cart); err != nil {
		h.serverError(w, err)
		return
	}

	http.Redirect(w, r, "/cart/", http.StatusSeeOther)
}

type cartData struct {
	User  *db.User
	Lines []shop.CartLine
	Total int64
}

// cartView resolves the cart against the catalog and shows line and
// running totals.
func (h *Handlers) cartView(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	lines, total, err := shop.ResolveCart(r.Context(), h.Catalog, sess.Cart)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "cart.html", cartData{User: h.currentUser(r), Lines: lines, Total: total})
}

// checkout shows the order summary on GET and places the order on POST.
func (h *Handlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := h.currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return
	}

	sess := sessionFrom(r)
	if sess.Cart.IsEmpty() {
		http.Redirect(w, r, "/cart/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodPost {
		ship := shop.ShippingInfo{
			FullName: r.FormValue("full_name"),
			Address:  r.FormValue("address"),
			City:     r.FormValue("city"),
			ZipCode:  r.FormValue("zip_code"),
		}

		order, err := h.Checkout.Place(ctx, user.ID, sess.Cart, ship)
		if err != nil {
			h.serverError(w, err)
			return
		}

		if err := h.Sessions.ClearCart(ctx, sess.ID); err != nil {
			h.serverError(w, err)
			return
		}
		ordersPlaced.Inc()

		// Best-effort event publish, never blocks the response.
		go func(order *db.Order) {
			eventCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := h.Events.PublishOrderPlaced(eventCtx, order.ID, order.UserID, order.TotalPrice, len(order.Items)); err != nil {
				h.Log.Error("Failed to publish order placed event", zap.Uint("order_id", order.ID), zap.Error(err))
			}
		}(order)

		http.Redirect(w, r, "/profile/", http.StatusSeeOther)
		return
	}

	// Read path: same resolution and totals as the write path, without
	// touching stock or creating records.
	lines, total, err := shop.ResolveCart(ctx, h.Catalog, sess.Cart)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "checkout.html", cartData{User: user, Lines: lines, Total: total})
}
