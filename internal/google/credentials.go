package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ErrEmptyCredentials is returned when a credentials source is present but empty.
var ErrEmptyCredentials = errors.New("credentials are empty")

// Source describes where the service account key comes from.
// JSON takes precedence over File.
type Source struct {
	File string
	JSON string
}

// IsZero reports whether no explicit source is configured.
func (s Source) IsZero() bool {
	return s.File == "" && s.JSON == ""
}

// LoadCredentials resolves credentials for the given scopes.
// With an empty Source it falls back to Application Default Credentials.
func LoadCredentials(ctx context.Context, src Source, scopes ...string) (*google.Credentials, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	var data []byte
	switch {
	case src.JSON != "":
		data = []byte(src.JSON)
	case src.File != "":
		b, err := os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		data = b
	default:
		creds, err := google.FindDefaultCredentials(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		return creds, nil
	}

	if len(data) == 0 {
		return nil, ErrEmptyCredentials
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds, nil
}

// HTTPClient returns an HTTP client that authorizes requests with creds.
func HTTPClient(ctx context.Context, creds *google.Credentials) *http.Client {
	return oauth2.NewClient(ctx, creds.TokenSource)
}

// ClientOptions loads credentials and returns the options to construct
// an authorized Google API service.
func ClientOptions(ctx context.Context, src Source) ([]option.ClientOption, error) {
	creds, err := LoadCredentials(ctx, src)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(creds.TokenSource)}, nil
}
