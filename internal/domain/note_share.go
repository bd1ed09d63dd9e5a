package domain

import "time"

// NoteShare grants one user read access to another user's note.
// Unique on (NoteID, SharedWithUserID), enforced by the store rather than
// application locking. Created only by the note's owner; never updated;
// removed when the owning note is deleted.
//
// Holds foreign-key style references rather than embedded back-references to
// keep the User/Note/NoteShare graph acyclic.
type NoteShare struct {
	ID               string    `json:"id"`
	NoteID           string    `json:"note_id"`
	SharedWithUserID string    `json:"shared_with_user_id"`
	SharedAt         time.Time `json:"shared_at"`
}
