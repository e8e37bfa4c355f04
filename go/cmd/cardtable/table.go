package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/cardtable/go/clients/api_client"
	"github.com/mcdev12/cardtable/go/internal/gameinfo"
	"github.com/mcdev12/cardtable/go/internal/games"
	"github.com/mcdev12/cardtable/go/internal/mirror"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
	"github.com/mcdev12/cardtable/go/internal/users"
)

var errNoGame = errors.New("either --game or --code is required")

// table is an open game socket with its controller.
type table struct {
	game   games.Game
	mux    *session.Multiplexer
	users  *users.App
	mirror *mirror.Mirror
	pub    *mirror.JetStreamPublisher
}

func openTable(ctx context.Context) (*table, error) {
	api := api_client.NewAPIClient(cfg.APIBaseURL(), cfg.Auth.APIToken)
	userApp := users.NewApp(users.NewRepository(api), users.Config{Cache: cfg.CacheConfig()})
	gameApp := gameinfo.NewApp(gameinfo.NewRepository(api), cfg.CacheConfig())

	id := gameID
	if id == 0 {
		if joinCode == "" {
			return nil, errNoGame
		}
		game, err := gameApp.FromCode(ctx, joinCode)
		if err != nil {
			return nil, err
		}
		id = game.ID
	}

	target, err := gameApp.Target(ctx, id, cfg.Server.Host, cfg.Server.Secure, cfg.Auth.UserID, cfg.Auth.APIToken)
	if err != nil {
		return nil, err
	}

	// Handlers must be registered before the socket starts: the server
	// answers join with the current state.
	mux := session.New(target.Endpoint, target.Identity, cfg.SessionConfig())
	game, err := games.Open(models.GameMode(target.Identity.Mode), mux, cfg.Auth.UserID, userApp)
	if err != nil {
		mux.Close()
		return nil, err
	}

	t := &table{game: game, mux: mux, users: userApp}
	if js, ok := cfg.JetStreamConfig(); ok {
		pub, err := mirror.NewJetStreamPublisher(ctx, js)
		if err != nil {
			t.close()
			return nil, err
		}
		t.pub = pub
		t.mirror = mirror.Attach(mux, pub, mirror.DefaultConfig())
	}

	return t, nil
}

// start connects and sends join. Subscribe to the game before calling it.
func (t *table) start(ctx context.Context) error {
	t.mux.Start(context.Background())
	if err := t.mux.WaitOpen(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	log.Info().
		Str("game_mode", string(t.game.Mode())).
		Str("conn_id", t.mux.ID()).
		Msg("joined game")
	return nil
}

func (t *table) close() {
	if t.mirror != nil {
		t.mirror.Close()
	}
	if t.pub != nil {
		t.pub.Close()
	}
	t.game.Close()
	t.users.Wait()
}
