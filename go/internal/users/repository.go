package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/cardtable/go/clients"
	"github.com/mcdev12/cardtable/go/clients/api_client"
	"github.com/mcdev12/cardtable/go/internal/cache"
	"github.com/mcdev12/cardtable/go/internal/models"
)

// UserFetcher is the part of the REST client the repository needs.
type UserFetcher interface {
	GetUser(ctx context.Context, id uint64) (*api_client.User, error)
}

// Repository loads profiles over REST.
type Repository struct {
	api UserFetcher
}

func NewRepository(api UserFetcher) *Repository {
	return &Repository{api: api}
}

// GetUser fetches one profile. A missing user wraps cache.ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	u, err := r.api.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, cache.ErrNotFound)
		}
		return nil, err
	}
	return userFromAPI(u), nil
}

func userFromAPI(u *api_client.User) *models.User {
	user := &models.User{
		ID:       u.ID,
		Username: u.Username,
		Display:  u.Display,
		Email:    u.Email,
		Guest:    u.Guest,
	}
	if u.Config != nil {
		user.Gravatar = u.Config.GravatarHash
	}
	return user
}
