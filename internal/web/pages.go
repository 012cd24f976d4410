package web

import (
	"net/http"
)

// about renders the static about page.
func (h *Handlers) about(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about.html", map[string]interface{}{"User": h.currentUser(r)})
}

// studentOffer renders the student offer page. Submissions always come
// back with a validation message.
func (h *Handlers) studentOffer(w http.ResponseWriter, r *http.Request) {
	var errorMessage string
	if r.Method == http.MethodPost {
		errorMessage = "Please enter a valid Student ID."
	}
	h.render(w, "student_offer.html", map[string]interface{}{
		"User":         h.currentUser(r),
		"ErrorMessage": errorMessage,
	})
}
