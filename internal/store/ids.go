package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32
// (lowercase, no padding): ~40 bits of space.
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

// NewItemID generates an id for a new item, retrying on the (unlikely)
// collision with an existing one.
func (db *DB) NewItemID() (string, error) {
	for i := 0; i < 10; i++ {
		id, err := newRandomID("item")
		if err != nil {
			return "", err
		}
		if _, exists := db.FindItem(id); !exists {
			return id, nil
		}
	}
	return newRandomID("item")
}

func NewCategoryID() (string, error)   { return newRandomID("cat") }
func NewCommitmentID() (string, error) { return newRandomID("com") }
