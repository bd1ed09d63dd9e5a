package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/dipa/notefournote-server/internal/config"
	"github.com/dipa/notefournote-server/internal/logger"
	"github.com/dipa/notefournote-server/internal/search"
	"github.com/dipa/notefournote-server/internal/store"
	"github.com/dipa/notefournote-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite-backed authoritative store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "notes.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// NoteIndexHandle wraps the search index with shutdown capability.
type NoteIndexHandle struct {
	*search.NoteIndex
}

// Shutdown implements do.Shutdownable.
func (h *NoteIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideNoteIndex provides the Bleve search index.
func ProvideNoteIndex(i do.Injector) (*NoteIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewNoteIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &NoteIndexHandle{NoteIndex: index}, nil
}
