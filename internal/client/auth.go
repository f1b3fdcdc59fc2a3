package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/fivetwenty-io/fleet-client/pkg/fleet"
)

// Static errors for err113 compliance.
var (
	ErrAPIKeyCannotRefresh = errors.New("API key sessions cannot be refreshed")
	ErrNoPendingTwoFactor  = errors.New("no two-factor challenge pending")
	ErrEmptyTokenResponse  = errors.New("authentication response carried no token")
)

// AuthClient implements fleet.AuthClient.
type AuthClient struct {
	client    *Client
	refreshMu sync.Mutex
}

// NewAuthClient creates a new auth client.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// Login implements fleet.AuthClient.Login.
func (a *AuthClient) Login(ctx context.Context, username, password string) error {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	token, err := a.exchange(ctx, "/login_", body, "logging in")
	if err != nil {
		return err
	}

	if err := a.client.tokens.SetToken(token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}

	return nil
}

// LoginWithToken implements fleet.AuthClient.LoginWithToken.
func (a *AuthClient) LoginWithToken(ctx context.Context, token string) error {
	return a.client.tokens.SetToken(token)
}

// LoginWithAPIKey implements fleet.AuthClient.LoginWithAPIKey.
func (a *AuthClient) LoginWithAPIKey(ctx context.Context, apiKey string) error {
	return a.client.tokens.SetAPIKey(apiKey)
}

// TwoFactorChallenge implements fleet.AuthClient.TwoFactorChallenge. The
// pending token authenticates the verification call; the response replaces
// it with a fully authorized one.
func (a *AuthClient) TwoFactorChallenge(ctx context.Context, code string) error {
	if !a.client.tokens.TwoFactorPending() {
		return ErrNoPendingTwoFactor
	}

	token, err := a.exchange(ctx, "/auth/totp/verify", map[string]string{"code": code}, "verifying two-factor code")
	if err != nil {
		return err
	}

	if err := a.client.tokens.SetToken(token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}

	return nil
}

// Logout implements fleet.AuthClient.Logout. The credential is dropped
// locally; the server session is left to expire on its own.
func (a *AuthClient) Logout(ctx context.Context) error {
	if err := a.client.tokens.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Register implements fleet.AuthClient.Register.
func (a *AuthClient) Register(ctx context.Context, email, password string) error {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	token, err := a.exchange(ctx, "/user/register", body, "registering account")
	if err != nil {
		return err
	}

	if err := a.client.tokens.SetToken(token); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}

	return nil
}

// IsLoggedIn implements fleet.AuthClient.IsLoggedIn.
func (a *AuthClient) IsLoggedIn() bool {
	return a.client.tokens.IsLoggedIn()
}

// TwoFactorPending implements fleet.AuthClient.TwoFactorPending.
func (a *AuthClient) TwoFactorPending() bool {
	return a.client.tokens.TwoFactorPending()
}

// Token implements fleet.AuthClient.Token.
func (a *AuthClient) Token() (string, error) {
	cred, ok := a.client.tokens.Credential()
	if !ok {
		return "", fleet.ErrNotLoggedIn
	}

	return cred, nil
}

// RefreshToken implements fleet.AuthClient.RefreshToken. Concurrent callers
// serialize so a burst of near-expiry requests produces one exchange at a
// time.
func (a *AuthClient) RefreshToken(ctx context.Context) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	if a.client.tokens.IsAPIKey() {
		return ErrAPIKeyCannotRefresh
	}

	if !a.client.tokens.IsLoggedIn() {
		return fleet.ErrNotLoggedIn
	}

	resp, err := a.client.authHTTP.Get(ctx, "/user/v1/refresh-token", nil)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}

	token := strings.TrimSpace(string(resp.Body))
	if token == "" {
		return fmt.Errorf("refreshing token: %w", ErrEmptyTokenResponse)
	}

	if err := a.client.tokens.SetToken(token); err != nil {
		return fmt.Errorf("storing refreshed token: %w", err)
	}

	return nil
}

// WhoAmI implements fleet.AuthClient.WhoAmI. Token sessions answer from the
// embedded claims; API key sessions ask the server.
func (a *AuthClient) WhoAmI(ctx context.Context) (*fleet.UserInfo, error) {
	if claims := a.client.tokens.Claims(); claims != nil {
		return &fleet.UserInfo{
			ID:       claims.ID,
			Username: claims.Username,
			Email:    claims.Email,
		}, nil
	}

	if !a.client.tokens.IsAPIKey() {
		return nil, fleet.ErrNotLoggedIn
	}

	resp, err := a.client.http.Get(ctx, "/user/v1/whoami", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching identity: %w", err)
	}

	var info fleet.UserInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, fmt.Errorf("parsing identity response: %w", err)
	}

	return &info, nil
}

// exchange posts a credential request and returns the token the response
// body carries. Rejected credentials map to ErrAuthenticationFailed.
func (a *AuthClient) exchange(ctx context.Context, path string, body map[string]string, action string) (string, error) {
	resp, err := a.client.authHTTP.Post(ctx, path, body)
	if err != nil {
		var apiErr *fleet.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return "", fmt.Errorf("%s: %w", action, fleet.ErrAuthenticationFailed)
		}

		return "", fmt.Errorf("%s: %w", action, err)
	}

	token := strings.TrimSpace(string(resp.Body))
	if token == "" {
		return "", fmt.Errorf("%s: %w", action, ErrEmptyTokenResponse)
	}

	return token, nil
}
