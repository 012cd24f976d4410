// Package session stores per-browser state: the authenticated user binding
// and the shopping cart. State lives behind a Store so request handlers
// receive an explicit Session value instead of touching shared globals.
package session

import (
	"encoding/json"
	"strconv"
)

// Cart maps book IDs to quantities. Entries for books that no longer exist
// are skipped when the cart is resolved against the catalog, not here.
type Cart map[uint]int

// Add increments the quantity for a book by 1, starting at 1.
func (c Cart) Add(bookID uint) {
	c[bookID]++
}

// Remove deletes the entry for a book; no-op when absent.
func (c Cart) Remove(bookID uint) {
	delete(c, bookID)
}

// IsEmpty reports whether the cart has no entries.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// legacyQuantity is the object-shaped quantity some stored carts carry
// instead of a bare number.
type legacyQuantity struct {
	Quantity int `json:"quantity"`
}

// UnmarshalJSON decodes a stored cart, normalizing both legacy value shapes
// (bare number, object with a quantity field) to a plain int. Entries that
// fail to decode or carry a non-positive quantity are dropped.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Cart, len(raw))
	for key, value := range raw {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}

		var qty int
		if err := json.Unmarshal(value, &qty); err != nil {
			var legacy legacyQuantity
			if err := json.Unmarshal(value, &legacy); err != nil {
				continue
			}
			qty = legacy.Quantity
		}
		if qty < 1 {
			continue
		}
		out[uint(id)] = qty
	}

	*c = out
	return nil
}

// MarshalJSON encodes the cart with string keys, matching the stored form.
func (c Cart) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(c))
	for id, qty := range c {
		out[strconv.FormatUint(uint64(id), 10)] = qty
	}
	return json.Marshal(out)
}

// Session is the per-request view of one browser's state. UserID is zero
// for anonymous sessions.
type Session struct {
	ID     string
	UserID uint
	Cart   Cart
}

// Authenticated reports whether the session is bound to a user.
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}
