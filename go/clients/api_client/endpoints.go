package api_client

const (
	APIPrefix = "/api/v1"

	UserEndpoint     = APIPrefix + "/user"
	GameEndpoint     = APIPrefix + "/game"
	GameFindEndpoint = APIPrefix + "/game/find"

	// Headers
	AuthTokenHeader = "X-Auth-Token"
)
