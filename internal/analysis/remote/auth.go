package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"docgateway-backend/internal/analysis"
)

const subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// Credentials attaches authentication to an outgoing analysis request. The
// concrete strategy is chosen once at construction: a static subscription key
// when one is configured, a bearer token from an identity provider otherwise.
type Credentials interface {
	Apply(req *http.Request) error
}

type keyCredentials struct {
	key string
}

// KeyCredentials authenticates with a static subscription key header.
func KeyCredentials(key string) (Credentials, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("analysis key is required")
	}
	return &keyCredentials{key: strings.TrimSpace(key)}, nil
}

func (c *keyCredentials) Apply(req *http.Request) error {
	req.Header.Set(subscriptionKeyHeader, c.key)
	return nil
}

type tokenCredentials struct {
	source oauth2.TokenSource
}

// TokenCredentials authenticates with bearer tokens acquired through the
// OAuth2 client-credentials flow. Tokens are cached and refreshed by the
// underlying source.
func TokenCredentials(tokenURL, clientID, clientSecret string, scopes []string) (Credentials, error) {
	if strings.TrimSpace(tokenURL) == "" {
		return nil, fmt.Errorf("token URL is required for identity auth")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("client ID is required for identity auth")
	}
	cfg := &clientcredentials.Config{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
	}
	return &tokenCredentials{source: cfg.TokenSource(context.Background())}, nil
}

func (c *tokenCredentials) Apply(req *http.Request) error {
	token, err := c.source.Token()
	if err != nil {
		return &analysis.AuthError{Err: err}
	}
	token.SetAuthHeader(req)
	return nil
}
