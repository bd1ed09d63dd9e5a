package domain

import "time"

// Note is the authoritative record of a short text note. Exactly one owner;
// ownership never transfers. Title, content, and the tag set are mutated only
// by the owner. UpdatedAt is authoritative for recency ordering.
//
// OwnerUsername and SharedWith are denormalized from the related user and
// share records when a note is loaded, so access classification never needs
// another round trip.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"` // canonical (normalized) tag names
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	OwnerUsername string   `json:"owner_username"`
	SharedWith    []string `json:"shared_with"` // recipient usernames
}

// Touch updates the UpdatedAt timestamp.
func (n *Note) Touch() {
	n.UpdatedAt = time.Now()
}

// IsSharedWith reports whether the note has been shared with the given username.
func (n *Note) IsSharedWith(username string) bool {
	for _, u := range n.SharedWith {
		if u == username {
			return true
		}
	}
	return false
}

// IsOwner reports whether the given username owns the note.
func (n *Note) IsOwner(username string) bool {
	return n.OwnerUsername == username
}

// CanRead reports whether the given username may read the note.
func (n *Note) CanRead(username string) bool {
	return n.Classify(username).CanRead()
}

// Ownership is the access classification of a (note, user) pair.
type Ownership string

// Ownership classifications. The owner retains full rights regardless of the
// OWNED / SHARED_BY_ME distinction; that split exists purely for client display.
const (
	OwnershipOwned        Ownership = "OWNED"
	OwnershipSharedByMe   Ownership = "SHARED_BY_ME"
	OwnershipSharedWithMe Ownership = "SHARED_WITH_ME"
	OwnershipDenied       Ownership = "DENIED"
)

// IsOwner reports whether the classification carries owner rights.
func (o Ownership) IsOwner() bool {
	return o == OwnershipOwned || o == OwnershipSharedByMe
}

// CanRead reports whether the classification permits reading the note.
func (o Ownership) CanRead() bool {
	return o != OwnershipDenied
}

// Classify computes the access classification of a note relative to the
// requesting username. Pure function over an already-loaded note.
func (n *Note) Classify(username string) Ownership {
	if n.OwnerUsername == username {
		if len(n.SharedWith) == 0 {
			return OwnershipOwned
		}
		return OwnershipSharedByMe
	}
	if n.IsSharedWith(username) {
		return OwnershipSharedWithMe
	}
	return OwnershipDenied
}
