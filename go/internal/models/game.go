package models

import "encoding/json"

// GameMode names a game implementation; it is the game_mode header value
// and the REST style field.
type GameMode string

const (
	GameModeGin           GameMode = "gin"
	GameModeHearts        GameMode = "hearts"
	GameModeSpades        GameMode = "spades"
	GameModeEightJacks    GameMode = "eightjacks"
	GameModeThreeThirteen GameMode = "threethirteen"
)

func (m GameMode) Valid() bool {
	switch m {
	case GameModeGin, GameModeHearts, GameModeSpades, GameModeEightJacks, GameModeThreeThirteen:
		return true
	}
	return false
}

type GameLifecycle string

const (
	GameLifecyclePending  GameLifecycle = "pending"
	GameLifecyclePlaying  GameLifecycle = "playing"
	GameLifecycleFinished GameLifecycle = "finished"
	GameLifecycleDeleted  GameLifecycle = "deleted"
)

// Game is the REST record of a game.
type Game struct {
	ID        uint64          `json:"id"`
	Owner     uint64          `json:"owner"`
	Room      uint64          `json:"room"`
	Mode      GameMode        `json:"style"`
	Open      bool            `json:"open"`
	JoinCode  string          `json:"code,omitempty"`
	Lifecycle GameLifecycle   `json:"lifecycle"`
	Config    json.RawMessage `json:"config"` // opaque per-game settings
	Admitted  bool            `json:"admitted"`
}
