package models

import "fmt"

// User is the public profile of an account, as shown next to a seat.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username,omitempty"`
	Display  string `json:"display"`
	Email    string `json:"email,omitempty"`
	Guest    bool   `json:"guest"`
	Gravatar string `json:"gravatar,omitempty"`
}

// Name is the label to render for the user.
func (u *User) Name() string {
	if u == nil {
		return "unknown"
	}
	if u.Display != "" {
		return u.Display
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("user %d", u.ID)
}
