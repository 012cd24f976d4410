package session

import (
	"context"
	"time"
)

const (
	// Cart mapping: sess:cart:{sid} -> JSON object of book id -> quantity
	KeyCart = "sess:cart:%s"

	// User binding: sess:user:{sid} -> user id
	KeyUser = "sess:user:%s"
)

// TTLSession bounds how long an idle session survives.
var TTLSession = 30 * 24 * time.Hour

// Store persists session state between requests.
type Store interface {
	// Load returns the session for the given ID, empty if none exists.
	Load(ctx context.Context, id string) (*Session, error)

	// SaveCart replaces the stored cart for the session.
	SaveCart(ctx context.Context, id string, cart Cart) error

	// ClearCart drops the stored cart for the session.
	ClearCart(ctx context.Context, id string) error

	// BindUser attaches a user to the session.
	BindUser(ctx context.Context, id string, userID uint) error

	// UnbindUser detaches the user from the session.
	UnbindUser(ctx context.Context, id string) error
}
