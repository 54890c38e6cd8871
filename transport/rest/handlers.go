package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/pictionary-server/internal/game"
)

const snapshotTimeout = 2 * time.Second

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	PlayersHandler(w http.ResponseWriter, r *http.Request)
}

type lobby interface {
	Snapshot(ctx context.Context) (game.Snapshot, error)
}

type handlers struct {
	logger *slog.Logger
	lobby  lobby
}

func NewHandlers(logger *slog.Logger, lobby lobby) Handlers {
	return &handlers{
		logger: logger,
		lobby:  lobby,
	}
}

// PlayersHandler - returns the current phase and roster as JSON.
func (that *handlers) PlayersHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "PlayersHandler")

	ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
	defer cancel()

	snapshot, err := that.lobby.Snapshot(ctx)
	if err != nil {
		log.Error("failed to get snapshot", "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err = json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error("failed to write snapshot", "error", err)
	}
}
