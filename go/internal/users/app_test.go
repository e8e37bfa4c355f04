package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/cardtable/go/clients/api_client"
	"github.com/mcdev12/cardtable/go/internal/cache"
	"github.com/mcdev12/cardtable/go/internal/models"
)

func TestFromIDCachesProfiles(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch strings.TrimPrefix(r.URL.Path, api_client.UserEndpoint+"/") {
		case "5":
			w.Write([]byte(`{"id":5,"display":"Sam","config":{"gravatar":"abc"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"type":"error","message":"no such user"}`))
		}
	}))
	defer srv.Close()

	app := NewApp(NewRepository(api_client.NewAPIClient(srv.URL, "tok")), DefaultConfig())

	for i := 0; i < 3; i++ {
		user, err := app.FromID(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, "Sam", user.Name())
		assert.Equal(t, "abc", user.Gravatar)
	}
	assert.Equal(t, int32(1), hits.Load())

	_, err := app.FromID(context.Background(), 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cache.ErrNotFound))

	_, err = app.FromID(context.Background(), 6)
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load(), "failed lookups are retried")
}

type stubRepo map[uint64]*models.User

func (s stubRepo) GetUser(_ context.Context, id uint64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, cache.ErrNotFound
}

func TestPrimeAndForget(t *testing.T) {
	repo := stubRepo{1: {ID: 1, Display: "remote"}}
	app := NewApp(repo, DefaultConfig())

	app.Prime(&models.User{ID: 1, Display: "local"})
	user, err := app.FromID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "local", user.Display)

	app.Forget(1)
	user, err = app.FromID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "remote", user.Display)
}

func TestUserName(t *testing.T) {
	var nilUser *models.User
	assert.Equal(t, "unknown", nilUser.Name())
	assert.Equal(t, "alex", (&models.User{Username: "alex"}).Name())
	assert.Equal(t, "user 9", (&models.User{ID: 9}).Name())
}
