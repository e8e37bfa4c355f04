package users

import (
	"context"
	"fmt"

	"github.com/mcdev12/cardtable/go/internal/cache"
	"github.com/mcdev12/cardtable/go/internal/models"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	GetUser(ctx context.Context, id uint64) (*models.User, error)
}

// App resolves user ids embedded in game pushes into profiles. It is the
// UserCache every game session is given.
type App struct {
	cache *cache.Cache[uint64, *models.User]
}

// NewApp creates a new users App
func NewApp(repo UsersRepository, config Config, opts ...cache.Option) *App {
	return &App{
		cache: cache.New[uint64, *models.User]("users", repo.GetUser, config.Cache, opts...),
	}
}

// FromID returns the profile for id, loading it on first use.
func (a *App) FromID(ctx context.Context, id uint64) (*models.User, error) {
	user, err := a.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Prime stores a profile the caller already holds, such as the local user.
func (a *App) Prime(user *models.User) {
	if user != nil {
		a.cache.Put(user.ID, user)
	}
}

// Forget drops id so the next lookup reloads it.
func (a *App) Forget(id uint64) {
	a.cache.Invalidate(id)
}

// Wait blocks until background refreshes finish.
func (a *App) Wait() {
	a.cache.Wait()
}
