package session

import (
	"fmt"
	"net/url"
	"strconv"
)

// GameEndpoint returns the socket address of a game:
// ws(s)://host/game/<id>/ws?user_id=<uid>&api_token=<token>.
func GameEndpoint(host string, secure bool, gameID, userID uint64, token string) string {
	return endpoint(host, secure, "game", gameID, userID, token)
}

// RoomEndpoint returns the socket address of a room.
func RoomEndpoint(host string, secure bool, roomID, userID uint64, token string) string {
	return endpoint(host, secure, "room", roomID, userID, token)
}

func endpoint(host string, secure bool, kind string, id, userID uint64, token string) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	q := url.Values{}
	q.Set("user_id", strconv.FormatUint(userID, 10))
	q.Set("api_token", token)
	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     fmt.Sprintf("/%s/%d/ws", kind, id),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// redact hides the api token of an endpoint for logging.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid endpoint>"
	}
	q := u.Query()
	if q.Has("api_token") {
		q.Set("api_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
