package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"room-service/internal/roles"
)

// User carries the identity attributes the service consumes from the
// provider. MetadataRole is the externally managed role attribute; it may be
// empty or carry a value outside the known set, in which case role
// resolution falls back to the email allow-lists.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	AvatarURL    string     `json:"avatar_url"`
	Emails       []string   `json:"email_addresses"`
	MetadataRole roles.Role `json:"role"`
}

// PrimaryEmail returns the first email address, or empty.
func (u User) PrimaryEmail() string {
	if len(u.Emails) == 0 {
		return ""
	}
	return u.Emails[0]
}

// Passkey describes a registered passkey as reported by the provider.
type Passkey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Provider is the capability surface consumed from the identity provider.
type Provider interface {
	ValidateToken(ctx context.Context, token string) (User, error)
	ListPasskeys(ctx context.Context, token string) ([]Passkey, error)
	DeletePasskey(ctx context.Context, token, passkeyID string) error
}

// ErrorDetail is a single structured error message from the provider.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a provider failure carrying the provider's error list.
type APIError struct {
	Status int           `json:"status"`
	Errors []ErrorDetail `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("identity provider error (status %d): %s", e.Status, e.Errors[0].Message)
	}
	return fmt.Sprintf("identity provider error (status %d)", e.Status)
}

var ErrUnauthorized = errors.New("invalid token")

// Client is an HTTP client for the identity provider API.
type Client struct {
	endpoint  string
	projectID string
	apiKey    string
	http      *http.Client
}

// NewClient constructs the provider client. No explicit per-call timeout is
// layered on top of the HTTP client's default.
func NewClient(endpoint, projectID, apiKey string) *Client {
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		projectID: projectID,
		apiKey:    apiKey,
		http:      &http.Client{},
	}
}

// ValidateToken verifies the session token and returns the user's identity
// attributes.
func (c *Client) ValidateToken(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/v1/me", token, &user); err != nil {
		return User{}, err
	}
	if user.ID == "" {
		return User{}, ErrUnauthorized
	}
	return user, nil
}

// ListPasskeys returns the user's registered passkeys.
func (c *Client) ListPasskeys(ctx context.Context, token string) ([]Passkey, error) {
	var resp struct {
		Passkeys []Passkey `json:"passkeys"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/me/passkeys", token, &resp); err != nil {
		return nil, err
	}
	return resp.Passkeys, nil
}

// DeletePasskey removes a passkey through the provider.
func (c *Client) DeletePasskey(ctx context.Context, token, passkeyID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/me/passkeys/"+passkeyID, token, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Project-Id", c.projectID)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}

var _ Provider = (*Client)(nil)
