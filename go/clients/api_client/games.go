package api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

type Game struct {
	ID        uint64          `json:"id"`
	Owner     uint64          `json:"owner"`
	Room      uint64          `json:"room"`
	Style     string          `json:"style"`
	Open      bool            `json:"open"`
	JoinCode  string          `json:"code,omitempty"`
	Lifecycle string          `json:"lifecycle"`
	Config    json.RawMessage `json:"config"`
	Admitted  bool            `json:"admitted"`
}

func (c *APIClient) GetGame(ctx context.Context, id uint64) (*Game, error) {
	var game Game
	if err := c.GetJSON(ctx, fmt.Sprintf("%s/%d", GameEndpoint, id), &game); err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return &game, nil
}

// FindGame looks a game up by its join code (gc-... or gp-...).
func (c *APIClient) FindGame(ctx context.Context, joinCode string) (*Game, error) {
	q := url.Values{}
	q.Set("join", joinCode)

	var game Game
	if err := c.GetJSON(ctx, GameFindEndpoint+"?"+q.Encode(), &game); err != nil {
		return nil, fmt.Errorf("failed to find game %q: %w", joinCode, err)
	}
	return &game, nil
}
