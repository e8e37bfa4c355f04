package api_client

import (
	"github.com/mcdev12/cardtable/go/clients"
)

// APIClient talks to the REST side of the game server. The sync layer only
// reads from it: user profiles for synopsis pushes and game records for
// endpoint discovery.
type APIClient struct {
	*clients.BaseClient
}

// NewAPIClient creates a client for baseURL (scheme://host) authenticated
// with apiToken.
func NewAPIClient(baseURL, apiToken string) *APIClient {
	client := &APIClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	if apiToken != "" {
		client.SetHeader(AuthTokenHeader, apiToken)
	}

	return client
}
