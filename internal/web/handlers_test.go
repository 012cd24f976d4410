package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/events"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/bookavenue/storefront/internal/session"
	"github.com/bookavenue/storefront/internal/shop"
	"github.com/bookavenue/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testApp struct {
	handlers *Handlers
	router   http.Handler
	database *db.DB
	sessions *session.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(db.Models()...))

	database := &db.DB{DB: gormDB}
	log := logger.New("test", "info")

	catalog := repo.NewCatalogRepository(database, log)
	users := repo.NewUserRepository(database, log)
	orders := repo.NewOrderRepository(database, log)
	reviews := repo.NewReviewRepository(database, log)
	dash := repo.NewDashboardRepository(database, orders, users, catalog, reviews, log)

	sessions := session.NewMemoryStore()

	handlers := &Handlers{
		Catalog:    catalog,
		Users:      users,
		Orders:     orders,
		Reviews:    reviews,
		Dash:       dash,
		Sessions:   sessions,
		Checkout:   shop.NewCheckout(catalog, orders, log),
		Recommend:  shop.NewRecommender(catalog, orders),
		Events:     events.NopPublisher{},
		Log:        log,
		CookieName: "sid",
	}

	return &testApp{
		handlers: handlers,
		router:   NewRouter(handlers),
		database: database,
		sessions: sessions,
	}
}

func (a *testApp) get(t *testing.T, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(t *testing.T, path, sid string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) seedCategory(t *testing.T, name, slug string) *db.Category {
	category := &db.Category{Name: name, Slug: slug}
	require.NoError(t, a.database.Create(category).Error)
	return category
}

func (a *testApp) seedBook(t *testing.T, book *db.Book) *db.Book {
	require.NoError(t, a.database.Create(book).Error)
	return book
}

func (a *testApp) seedUser(t *testing.T, username, password string, staff bool) *db.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &db.User{Username: username, Email: username + "@example.com", PasswordHash: string(hash), IsStaff: staff}
	require.NoError(t, a.database.Create(user).Error)
	return user
}

func (a *testApp) login(t *testing.T, sid string, userID uint) {
	require.NoError(t, a.sessions.BindUser(context.Background(), sid, userID))
}

func TestHomePage(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")
	app.seedBook(t, &db.Book{CategoryID: fiction.ID, Title: "Night Train", Author: "Gordon Reyes", Price: 1499, Stock: 10})

	rec := app.get(t, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Night Train")
	assert.Contains(t, rec.Body.String(), "$14.99")

	// Unknown category is a 404, not an empty listing
	rec = app.get(t, "/?category=cooking", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHomeSetsSessionCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/", "")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	// An existing cookie is kept
	rec = app.get(t, "/", "existing-sid")
	assert.Len(t, rec.Result().Cookies(), 0)
}

func TestBookDetailNotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/book/999/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.get(t, "/book/abc/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignup(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/signup/", "sid-1", url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"secret"},
		"confirm_password": {"secret"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Account exists with a hashed password and the session is logged in
	var user db.User
	require.NoError(t, app.database.Where("username = ?", "alice").First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")))

	sess, err := app.sessions.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
}

func TestSignupPasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/signup/", "sid-1", url.Values{
		"username":         {"alice"},
		"password":         {"secret"},
		"confirm_password": {"other"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")

	// No account was created
	var count int64
	require.NoError(t, app.database.Model(&db.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSignupPublisherProfile(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/signup/", "sid-1", url.Values{
		"username":         {"pub"},
		"password":         {"secret"},
		"confirm_password": {"secret"},
		"is_publisher":     {"on"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var user db.User
	require.NoError(t, app.database.Where("username = ?", "pub").First(&user).Error)

	var profile db.UserProfile
	require.NoError(t, app.database.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.True(t, profile.IsPublisher)
	assert.False(t, profile.IsApproved)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	user := app.seedUser(t, "bob", "secret", false)

	// Wrong password re-renders with a generic message
	rec := app.postForm(t, "/login/", "sid-1", url.Values{
		"username": {"bob"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")

	// Unknown user gets the same message
	rec = app.postForm(t, "/login/", "sid-1", url.Values{
		"username": {"nobody"},
		"password": {"secret"},
	})
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")

	// Correct credentials bind the session
	rec = app.postForm(t, "/login/", "sid-1", url.Values{
		"username": {"bob"},
		"password": {"secret"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sess, err := app.sessions.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	user := app.seedUser(t, "bob", "secret", false)
	app.login(t, "sid-1", user.ID)

	rec := app.get(t, "/logout/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sess, err := app.sessions.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestCartFlow(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")
	book := app.seedBook(t, &db.Book{CategoryID: fiction.ID, Title: "B1", Author: "A", Price: 1200, Stock: 5})

	rec := app.postForm(t, "/cart/add/"+itoa(book.ID)+"/", "sid-1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart/", rec.Header().Get("Location"))

	rec = app.postForm(t, "/cart/add/"+itoa(book.ID)+"/", "sid-1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sess, err := app.sessions.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, session.Cart{book.ID: 2}, sess.Cart)

	rec = app.get(t, "/cart/", "sid-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "B1")
	assert.Contains(t, rec.Body.String(), "$24.00")

	rec = app.postForm(t, "/cart/remove/"+itoa(book.ID)+"/", "sid-1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sess, err = app.sessions.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, sess.Cart.IsEmpty())
}

func TestCheckoutRequiresLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/checkout/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))
}

func TestCheckoutEmptyCartRedirects(t *testing.T) {
	app := newTestApp(t)
	user := app.seedUser(t, "bob", "secret", false)
	app.login(t, "sid-1", user.ID)

	rec := app.get(t, "/checkout/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart/", rec.Header().Get("Location"))
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")
	book := app.seedBook(t, &db.Book{CategoryID: fiction.ID, Title: "B1", Author: "A", Price: 1000, Stock: 5})
	user := app.seedUser(t, "bob", "secret", false)
	app.login(t, "sid-1", user.ID)

	require.NoError(t, app.sessions.SaveCart(context.Background(), "sid-1", session.Cart{book.ID: 2}))

	rec := app.postForm(t, "/checkout/", "sid-1", url.Values{
		"full_name": {"Bob Lee"},
		"address":   {"1 Main St"},
		"city":      {"Springfield"},
		"zip_code":  {"12345"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile/", rec.Header().Get("Location"))

	var order db.Order
	require.NoError(t, app.database.Preload("Items").Where("user_id = ?", user.ID).First(&order).Error)
	assert.True(t, order.Paid)
	assert.Equal(t, "Bob Lee", order.FullName)
	assert.Equal(t, int64(2000), order.TotalPrice)
	require.Len(t, order.Items, 1)

	sess, err := app.sessions.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, sess.Cart.IsEmpty())
}

func TestReviewSubmission(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")
	book := app.seedBook(t, &db.Book{CategoryID: fiction.ID, Title: "B1", Author: "A", Price: 1000, Stock: 5})
	buyer := app.seedUser(t, "buyer", "secret", false)

	// Verified purchase
	order := &db.Order{UserID: buyer.ID, Paid: true}
	require.NoError(t, app.database.Create(order).Error)
	require.NoError(t, app.database.Create(&db.OrderItem{OrderID: order.ID, BookID: book.ID, Price: 1000, Quantity: 1}).Error)

	app.login(t, "sid-1", buyer.ID)
	path := "/book/" + itoa(book.ID) + "/"

	// Invalid rating re-renders with the form error
	rec := app.postForm(t, path, "sid-1", url.Values{"rating": {"6"}, "comment": {"x"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rating must be between 1 and 5.")

	// Valid submission redirects back and persists
	rec = app.postForm(t, path, "sid-1", url.Values{"rating": {"5"}, "comment": {"Great"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, path, rec.Header().Get("Location"))

	var count int64
	require.NoError(t, app.database.Model(&db.Review{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A second submission is a silent no-op
	rec = app.postForm(t, path, "sid-1", url.Values{"rating": {"1"}, "comment": {"Changed my mind"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	require.NoError(t, app.database.Model(&db.Review{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReviewRequiresPurchase(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")
	book := app.seedBook(t, &db.Book{CategoryID: fiction.ID, Title: "B1", Author: "A", Price: 1000, Stock: 5})
	user := app.seedUser(t, "browser", "secret", false)
	app.login(t, "sid-1", user.ID)

	// Non-buyer POST is silently redirected, nothing stored
	rec := app.postForm(t, "/book/"+itoa(book.ID)+"/", "sid-1", url.Values{"rating": {"5"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var count int64
	require.NoError(t, app.database.Model(&db.Review{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAddBookGates(t *testing.T) {
	app := newTestApp(t)

	// Anonymous
	rec := app.get(t, "/add-book/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))

	// Plain shopper
	shopper := app.seedUser(t, "shopper", "secret", false)
	app.login(t, "sid-1", shopper.ID)
	rec = app.get(t, "/add-book/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAddBook(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")
	pub := app.seedUser(t, "pub", "secret", false)
	require.NoError(t, app.database.Create(&db.UserProfile{UserID: pub.ID, IsPublisher: true}).Error)
	app.login(t, "sid-1", pub.ID)

	rec := app.postForm(t, "/add-book/", "sid-1", url.Values{
		"title":    {"New Book"},
		"author":   {"Pub Author"},
		"price":    {"12.50"},
		"stock":    {"7"},
		"category": {itoa(fiction.ID)},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var book db.Book
	require.NoError(t, app.database.Where("title = ?", "New Book").First(&book).Error)
	assert.Equal(t, int64(1250), book.Price)
	assert.Equal(t, 7, book.Stock)
	require.NotNil(t, book.PublisherID)
	assert.Equal(t, pub.ID, *book.PublisherID)
}

func TestEditBookOwnership(t *testing.T) {
	app := newTestApp(t)
	fiction := app.seedCategory(t, "Fiction", "fiction")

	owner := app.seedUser(t, "owner", "secret", false)
	require.NoError(t, app.database.Create(&db.UserProfile{UserID: owner.ID, IsPublisher: true}).Error)
	intruder := app.seedUser(t, "intruder", "secret", false)
	require.NoError(t, app.database.Create(&db.UserProfile{UserID: intruder.ID, IsPublisher: true}).Error)

	book := app.seedBook(t, &db.Book{CategoryID: fiction.ID, Title: "Owned", Author: "A", PublisherID: &owner.ID, Price: 1000, Stock: 5})

	// Another publisher is silently sent home
	app.login(t, "sid-2", intruder.ID)
	rec := app.get(t, "/edit-book/"+itoa(book.ID)+"/", "sid-2")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The owner can edit
	app.login(t, "sid-1", owner.ID)
	rec = app.postForm(t, "/edit-book/"+itoa(book.ID)+"/", "sid-1", url.Values{
		"title":    {"Renamed"},
		"author":   {"A"},
		"price":    {"20.00"},
		"stock":    {"3"},
		"category": {itoa(fiction.ID)},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	var updated db.Book
	require.NoError(t, app.database.First(&updated, book.ID).Error)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, int64(2000), updated.Price)
}

func TestPublisherDashboardGates(t *testing.T) {
	app := newTestApp(t)

	// Anonymous
	rec := app.get(t, "/publisher-dashboard/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))

	// Plain shopper with no profile
	shopper := app.seedUser(t, "shopper", "secret", false)
	app.login(t, "sid-1", shopper.ID)
	rec = app.get(t, "/publisher-dashboard/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Profile exists but the publisher flag is off
	reader := app.seedUser(t, "reader", "secret", false)
	require.NoError(t, app.database.Create(&db.UserProfile{UserID: reader.ID, IsPublisher: false}).Error)
	app.login(t, "sid-3", reader.ID)
	rec = app.get(t, "/publisher-dashboard/", "sid-3")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Unapproved publisher sees the pending page
	pub := app.seedUser(t, "pub", "secret", false)
	require.NoError(t, app.database.Create(&db.UserProfile{UserID: pub.ID, IsPublisher: true}).Error)
	app.login(t, "sid-2", pub.ID)
	rec = app.get(t, "/publisher-dashboard/", "sid-2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Approval pending")

	// Approved publisher sees the dashboard
	require.NoError(t, app.database.Model(&db.UserProfile{}).Where("user_id = ?", pub.ID).Update("is_approved", true).Error)
	rec = app.get(t, "/publisher-dashboard/", "sid-2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Publisher dashboard")
}

func TestManagerDashboardGate(t *testing.T) {
	app := newTestApp(t)

	shopper := app.seedUser(t, "shopper", "secret", false)
	app.login(t, "sid-1", shopper.ID)
	rec := app.get(t, "/manager-dashboard/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	staff := app.seedUser(t, "boss", "secret", true)
	app.login(t, "sid-2", staff.ID)
	rec = app.get(t, "/manager-dashboard/", "sid-2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Manager dashboard")
}

func TestProfileRequiresLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/profile/", "sid-1")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))
}

func TestStudentOffer(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/student-offer/", "sid-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Please enter a valid Student ID.")

	// Every submission comes back with the validation message
	rec = app.postForm(t, "/student-offer/", "sid-1", url.Values{"student_id": {"S-12345"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid Student ID.")
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
