// Package gameinfo caches REST game records and derives socket endpoints
// from them.
package gameinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/cardtable/go/internal/cache"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

var ErrUnsupportedMode = errors.New("unsupported game mode")

type GamesRepository interface {
	GetGame(ctx context.Context, id uint64) (*models.Game, error)
	FindGame(ctx context.Context, joinCode string) (*models.Game, error)
}

type App struct {
	repo  GamesRepository
	cache *cache.Cache[uint64, *models.Game]
}

func NewApp(repo GamesRepository, config cache.Config, opts ...cache.Option) *App {
	return &App{
		repo:  repo,
		cache: cache.New[uint64, *models.Game]("games", repo.GetGame, config, opts...),
	}
}

func (a *App) FromID(ctx context.Context, id uint64) (*models.Game, error) {
	game, err := a.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// FromCode resolves a join code and caches the result under its id.
func (a *App) FromCode(ctx context.Context, joinCode string) (*models.Game, error) {
	game, err := a.repo.FindGame(ctx, joinCode)
	if err != nil {
		return nil, fmt.Errorf("failed to find game: %w", err)
	}
	a.cache.Put(game.ID, game)
	return game, nil
}

// Target is everything needed to open a game socket.
type Target struct {
	Endpoint string
	Identity session.Identity
}

// Target looks the game up and builds its socket address for userID.
func (a *App) Target(ctx context.Context, id uint64, host string, secure bool, userID uint64, token string) (Target, error) {
	game, err := a.FromID(ctx, id)
	if err != nil {
		return Target{}, err
	}
	if !game.Mode.Valid() {
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, game.Mode)
	}
	return Target{
		Endpoint: session.GameEndpoint(host, secure, game.ID, userID, token),
		Identity: session.Identity{
			Mode:   string(game.Mode),
			GameID: game.ID,
			UserID: userID,
		},
	}, nil
}
