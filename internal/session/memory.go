package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process session store used in tests and local runs
// without Redis.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]Cart
	users map[string]uint
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]Cart),
		users: make(map[string]uint),
	}
}

// Load returns the session for the given ID, empty if none exists.
func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{ID: id, Cart: Cart{}, UserID: s.users[id]}
	for bookID, qty := range s.carts[id] {
		sess.Cart[bookID] = qty
	}
	return sess, nil
}

// SaveCart replaces the stored cart for the session.
func (s *MemoryStore) SaveCart(ctx context.Context, id string, cart Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(Cart, len(cart))
	for bookID, qty := range cart {
		copied[bookID] = qty
	}
	s.carts[id] = copied
	return nil
}

// ClearCart drops the stored cart for the session.
func (s *MemoryStore) ClearCart(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}

// BindUser attaches a user to the session.
func (s *MemoryStore) BindUser(ctx context.Context, id string, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[id] = userID
	return nil
}

// UnbindUser detaches the user from the session.
func (s *MemoryStore) UnbindUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	return nil
}
