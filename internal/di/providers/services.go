package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/dipa/notefournote-server/internal/auth"
	"github.com/dipa/notefournote-server/internal/logger"
	"github.com/dipa/notefournote-server/internal/service"
)

// ProvideProjectionService provides the search projection synchronizer.
func ProvideProjectionService(i do.Injector) (*service.ProjectionService, error) {
	indexHandle := do.MustInvoke[*NoteIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProjectionService(indexHandle.NoteIndex, storeHandle.Store, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideNoteService provides the note orchestrator.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	projection := do.MustInvoke[*service.ProjectionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, projection, log.Logger), nil
}

// TriggerProjectionRebuildIfNeeded checks if the search projection lags the
// store and triggers a rebuild. Should be called after all services are wired.
func TriggerProjectionRebuildIfNeeded(i do.Injector) {
	projection := do.MustInvoke[*service.ProjectionService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := projection.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	notes, err := storeHandle.ListAllNotes(ctx)
	if err != nil || len(notes) == 0 {
		return
	}

	log.Info("Search index is empty but notes exist, triggering initial reindex",
		"note_count", len(notes),
	)

	go func() {
		reindexCtx := context.Background()
		if err := projection.ReindexAll(reindexCtx); err != nil {
			log.Error("Initial search reindex failed", "error", err)
		} else {
			count, _ := projection.DocumentCount()
			log.Info("Initial search reindex completed", "documents", count)
		}
	}()
}
