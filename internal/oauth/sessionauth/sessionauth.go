// Package sessionauth resolves an already-established account session
// into a verified identity. The direct-credential grant relies on it
// instead of the assertion verifier: the upstream session service has
// already proven who the caller is.
package sessionauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthenticated reports a session the provider does not accept.
var ErrUnauthenticated = errors.New("sessionauth: session not authenticated")

// Identity is a verified account identity supplied by the session
// service.
type Identity struct {
	UID           string `json:"uid"`
	VerifiedEmail string `json:"verifiedEmail"`
	Generation    int64  `json:"generation"`
	LastAuthAt    int64  `json:"lastAuthAt"`
}

// Provider authenticates a session credential.
type Provider interface {
	VerifySession(ctx context.Context, sessionToken string) (Identity, error)
}

// RemoteProvider verifies sessions against the account service over
// HTTP.
type RemoteProvider struct {
	URL    string
	client *http.Client
}

type RemoteConfig struct {
	URL      string
	PoolSize int
	Timeout  time.Duration
}

func NewRemoteProvider(cfg RemoteConfig) *RemoteProvider {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RemoteProvider{
		URL: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     poolSize,
				MaxIdleConnsPerHost: poolSize,
			},
		},
	}
}

type sessionVerifyResponse struct {
	Status   string   `json:"status"`
	Identity Identity `json:"identity"`
}

func (p *RemoteProvider) VerifySession(ctx context.Context, sessionToken string) (Identity, error) {
	body, err := json.Marshal(map[string]string{"token": sessionToken})
	if err != nil {
		return Identity{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("session verification call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, ErrUnauthenticated
	}

	var vr sessionVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return Identity{}, fmt.Errorf("decode session verifier response: %w", err)
	}
	if vr.Status != "okay" || vr.Identity.UID == "" {
		return Identity{}, ErrUnauthenticated
	}
	return vr.Identity, nil
}
