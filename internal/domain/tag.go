package domain

import "time"

// Tag is a globally deduplicated label. Name is the canonical form produced
// by normalize.TagName (trimmed, upper-cased); it is looked up-or-created on
// every note write that references it and never deleted.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteTag is the many-to-many relationship between notes and tags.
type NoteTag struct {
	NoteID string `json:"note_id"`
	TagID  string `json:"tag_id"`
}
