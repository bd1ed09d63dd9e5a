// Package main provides a tool to seed the database with test users and notes.
//
// It creates a handful of users, notes with tags, and shares between them,
// then rebuilds the search index so everything is immediately searchable.
//
// Usage:
//
//	DATA_PATH=~/NoteFourNote/data go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dipa/notefournote-server/internal/auth"
	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/id"
	"github.com/dipa/notefournote-server/internal/normalize"
	"github.com/dipa/notefournote-server/internal/search"
	"github.com/dipa/notefournote-server/internal/service"
	"github.com/dipa/notefournote-server/internal/store"
	"github.com/dipa/notefournote-server/internal/store/sqlite"
)

const seedPassword = "notefournote"

type seedNote struct {
	owner      string
	title      string
	content    string
	tags       []string
	sharedWith []string
}

var seedUsers = []string{"alice", "bob", "carol"}

var seedNotes = []seedNote{
	{
		owner:   "alice",
		title:   "Trip planning for Lisbon",
		content: "Book flights in March, look for a hotel near Alfama, and list the pastel de nata places worth queuing for.",
		tags:    []string{"travel", "food"},
		sharedWith: []string{
			"bob",
		},
	},
	{
		owner:   "alice",
		title:   "Quarterly budget review",
		content: "Compare subscriptions against last quarter and cancel anything unused. Move the surplus to the savings account.",
		tags:    []string{"finance"},
	},
	{
		owner:   "bob",
		title:   "Sourdough starter log",
		content: "Day 4: starter doubled in six hours. Switch to rye flour tomorrow and start the first test loaf this weekend.",
		tags:    []string{"food", "baking"},
		sharedWith: []string{
			"alice",
			"carol",
		},
	},
	{
		owner:   "carol",
		title:   "Reading list for autumn",
		content: "Finish the Le Guin collection first, then alternate between the history backlog and the new translations.",
		tags:    []string{"books"},
	},
}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/NoteFourNote/data")
	}

	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataPath, "notes.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.DiscardHandler)

	s, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	users := make(map[string]*domain.User, len(seedUsers))
	for _, username := range seedUsers {
		user, err := ensureUser(ctx, s, username)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", username, err)
		}
		users[username] = user
	}

	created := 0
	for _, sn := range seedNotes {
		recipients := make([]*domain.User, 0, len(sn.sharedWith))
		for _, name := range sn.sharedWith {
			recipients = append(recipients, users[name])
		}
		if _, err := createNote(ctx, s, users[sn.owner], recipients, sn); err != nil {
			log.Fatalf("Failed to create note %q: %v", sn.title, err)
		}
		created++
	}

	fmt.Printf("Created %d users and %d notes\n", len(users), created)

	// Rebuild the search index so seeded notes are searchable right away.
	index, err := search.NewNoteIndex(search.Options{
		DataPath: dataPath,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	projection := service.NewProjectionService(index, s, logger)
	if err := projection.ReindexAll(ctx); err != nil {
		log.Fatalf("Failed to reindex: %v", err)
	}

	count, _ := projection.DocumentCount()
	fmt.Printf("Search index rebuilt with %d documents\n", count)
	fmt.Printf("All seed users have password %q\n", seedPassword)
}

func ensureUser(ctx context.Context, s store.Store, username string) (*domain.User, error) {
	if user, err := s.GetUserByUsername(ctx, username); err == nil {
		fmt.Printf("User %s already exists\n", username)
		return user, nil
	}

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return nil, err
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	fmt.Printf("Created user %s\n", username)
	return user, nil
}

func createNote(ctx context.Context, s store.Store, owner *domain.User, recipients []*domain.User, sn seedNote) (*domain.Note, error) {
	tagNames := normalize.TagNames(sn.tags)
	tagIDs := make([]string, 0, len(tagNames))
	for _, name := range tagNames {
		tag, err := s.FindOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	noteID, err := id.Generate("note")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	note := &domain.Note{
		ID:        noteID,
		Title:     sn.title,
		Content:   sn.content,
		Tags:      tagNames,
		OwnerID:   owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	shares := make([]*domain.NoteShare, 0, len(recipients))
	for _, recipient := range recipients {
		shareID, err := id.Generate("share")
		if err != nil {
			return nil, err
		}
		shares = append(shares, &domain.NoteShare{
			ID:               shareID,
			NoteID:           noteID,
			SharedWithUserID: recipient.ID,
			SharedAt:         now,
		})
	}

	if err := s.CreateNote(ctx, note, tagIDs, shares); err != nil {
		return nil, err
	}
	return note, nil
}
