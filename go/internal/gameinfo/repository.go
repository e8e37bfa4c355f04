package gameinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/cardtable/go/clients"
	"github.com/mcdev12/cardtable/go/clients/api_client"
	"github.com/mcdev12/cardtable/go/internal/cache"
	"github.com/mcdev12/cardtable/go/internal/models"
)

// GameFetcher is the part of the REST client the repository needs.
type GameFetcher interface {
	GetGame(ctx context.Context, id uint64) (*api_client.Game, error)
	FindGame(ctx context.Context, joinCode string) (*api_client.Game, error)
}

type Repository struct {
	api GameFetcher
}

func NewRepository(api GameFetcher) *Repository {
	return &Repository{api: api}
}

func (r *Repository) GetGame(ctx context.Context, id uint64) (*models.Game, error) {
	g, err := r.api.GetGame(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("game %d", id))
	}
	return gameFromAPI(g), nil
}

func (r *Repository) FindGame(ctx context.Context, joinCode string) (*models.Game, error) {
	g, err := r.api.FindGame(ctx, joinCode)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("game %q", joinCode))
	}
	return gameFromAPI(g), nil
}

func notFound(err error, what string) error {
	if errors.Is(err, clients.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, cache.ErrNotFound)
	}
	return err
}

func gameFromAPI(g *api_client.Game) *models.Game {
	return &models.Game{
		ID:        g.ID,
		Owner:     g.Owner,
		Room:      g.Room,
		Mode:      models.GameMode(g.Style),
		Open:      g.Open,
		JoinCode:  g.JoinCode,
		Lifecycle: models.GameLifecycle(g.Lifecycle),
		Config:    g.Config,
		Admitted:  g.Admitted,
	}
}
