package web

import (
	"errors"
	"net/http"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type signupData struct {
	Error       string
	Username    string
	Email       string
	IsPublisher bool
}

// signup creates an account and, when the checkbox is set, a publisher
// profile pending approval. The new user is logged in immediately.
func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, "signup.html", signupData{})
		return
	}

	ctx := r.Context()
	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")
	isPublisher := r.FormValue("is_publisher") != ""

	data := signupData{Username: username, Email: email, IsPublisher: isPublisher}

	if username == "" || password == "" {
		data.Error = "Username and password are required."
		h.render(w, "signup.html", data)
		return
	}
	if password != confirm {
		data.Error = "Passwords do not match"
		h.render(w, "signup.html", data)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, err)
		return
	}

	user := &db.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := h.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			data.Error = "Username already taken."
			h.render(w, "signup.html", data)
			return
		}
		h.serverError(w, err)
		return
	}

	profile := &db.UserProfile{UserID: user.ID, IsPublisher: isPublisher}
	if err := h.Users.CreateProfile(ctx, profile); err != nil {
		h.serverError(w, err)
		return
	}

	sess := sessionFrom(r)
	if err := h.Sessions.BindUser(ctx, sess.ID, user.ID); err != nil {
		h.serverError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type loginData struct {
	Error    string
	Username string
}

// login authenticates a returning user.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, "login.html", loginData{})
		return
	}

	ctx := r.Context()
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			h.render(w, "login.html", loginData{Error: "Invalid username or password.", Username: username})
			return
		}
		h.serverError(w, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		h.render(w, "login.html", loginData{Error: "Invalid username or password.", Username: username})
		return
	}

	sess := sessionFrom(r)
	if err := h.Sessions.BindUser(ctx, sess.ID, user.ID); err != nil {
		h.serverError(w, err)
		return
	}

	h.Log.Info("User logged in", zap.Uint("user_id", user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logout drops the session's user binding and redirects home.
func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := h.Sessions.UnbindUser(r.Context(), sess.ID); err != nil {
		h.Log.Error("Failed to unbind session", zap.String("sid", sess.ID), zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type profileData struct {
	User   *db.User
	Orders []db.Order
}

// profile lists the user's orders, newest first.
func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login/", http.StatusSeeOther)
		return
	}

	orders, err := h.Orders.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, "profile.html", profileData{User: user, Orders: orders})
}
