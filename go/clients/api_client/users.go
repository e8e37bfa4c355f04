package api_client

import (
	"context"
	"fmt"
)

type UserConfig struct {
	GravatarHash          string `json:"gravatar,omitempty"`
	TurnPushNotification  bool   `json:"turn_push_notification"`
	TurnSoundNotification bool   `json:"turn_sound_notification"`
	TurnHapticFeedback    bool   `json:"turn_haptic_feedback"`
	AutoReady             bool   `json:"auto_ready"`
}

type User struct {
	ID            uint64      `json:"id"`
	Username      string      `json:"username,omitempty"`
	Display       string      `json:"display"`
	Email         string      `json:"email,omitempty"`
	Guest         bool        `json:"guest"`
	Config        *UserConfig `json:"config,omitempty"`
	CanCreateRoom bool        `json:"can_create_room"`
	CanCreateGame bool        `json:"can_create_game"`
}

func (c *APIClient) GetUser(ctx context.Context, id uint64) (*User, error) {
	var user User
	if err := c.GetJSON(ctx, fmt.Sprintf("%s/%d", UserEndpoint, id), &user); err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}
