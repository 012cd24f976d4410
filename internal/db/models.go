package db

import (
	"time"
)

// User is an account that can shop, review, and (with a profile) publish.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string { return "users" }

// UserProfile extends a User with publisher state. A user without a profile
// is treated as a plain shopper.
type UserProfile struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	UserID      uint `gorm:"uniqueIndex;not null" json:"user_id"`
	IsPublisher bool `gorm:"not null;default:false" json:"is_publisher"`
	IsApproved  bool `gorm:"not null;default:false" json:"is_approved"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// Category groups books under a unique slug.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(200);not null" json:"name"`
	Slug string `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
}

func (Category) TableName() string { return "categories" }

// Book is a catalog entry. Price is stored in the smallest currency unit.
type Book struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CategoryID   uint      `gorm:"not null;index:idx_books_category" json:"category_id"`
	Category     Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Title        string    `gorm:"type:varchar(200);not null;index:idx_books_title" json:"title"`
	Author       string    `gorm:"type:varchar(200);not null;index:idx_books_author" json:"author"`
	PublisherID  *uint     `gorm:"index:idx_books_publisher" json:"publisher_id,omitempty"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	Price        int64     `gorm:"not null" json:"price"` // cents
	ImageURL     string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	Stock        int       `gorm:"not null;default:10" json:"stock"`
	IsBestseller bool      `gorm:"not null;default:false" json:"is_bestseller"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_books_created_at" json:"created_at"`
}

func (Book) TableName() string { return "books" }

// IsNew reports whether the book was added within the last 72 hours.
// Value receiver so templates can call it on ranged values.
func (b Book) IsNew() bool {
	return b.CreatedAt.After(time.Now().Add(-72 * time.Hour))
}

// Order is created at checkout. Paid orders are the sole signal of a
// completed purchase for reviews, recommendations, and revenue.
type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UserID     uint        `gorm:"not null;index:idx_orders_user" json:"user_id"`
	FullName   string      `gorm:"type:varchar(100);not null;default:''" json:"full_name"`
	Address    string      `gorm:"type:text;not null;default:''" json:"address"`
	City       string      `gorm:"type:varchar(100);not null;default:''" json:"city"`
	ZipCode    string      `gorm:"type:varchar(20);not null;default:''" json:"zip_code"`
	Paid       bool        `gorm:"not null;default:false" json:"paid"`
	TotalPrice int64       `gorm:"not null;default:0" json:"total_price"` // cents
	CreatedAt  time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_orders_created_at" json:"created_at"`
	Items      []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

// TotalCost derives the order total from its items when no explicit total
// was recorded at checkout.
func (o Order) TotalCost() int64 {
	if o.TotalPrice != 0 {
		return o.TotalPrice
	}
	var total int64
	for _, it := range o.Items {
		total += it.Cost()
	}
	return total
}

// OrderItem carries a price snapshot taken at purchase time, insulated from
// later changes to Book.Price.
type OrderItem struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	OrderID  uint  `gorm:"not null;index:idx_order_items_order" json:"order_id"`
	BookID   uint  `gorm:"not null;index:idx_order_items_book" json:"book_id"`
	Book     Book  `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Price    int64 `gorm:"not null" json:"price"` // cents, snapshot
	Quantity int   `gorm:"not null;default:1" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

// Cost is the line total for this item.
func (i OrderItem) Cost() int64 {
	return i.Price * int64(i.Quantity)
}

// Review is one rating+comment per (user, book), gated by verified purchase.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"not null;index:idx_reviews_book" json:"book_id"`
	UserID    uint      `gorm:"not null;index:idx_reviews_user" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"` // 1 to 5
	Comment   string    `gorm:"type:varchar(500)" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Review) TableName() string { return "reviews" }
