package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminClient talks to the Supabase Auth REST API with the service role key.
type AdminClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewAdminClient creates a client for the project at supabaseURL.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimRight(supabaseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// authUser is the user object returned by the Auth API. Sign-up responses
// wrap it in a session when auto-confirm is on.
type authUser struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	User  *authUser `json:"user,omitempty"`
}

func (u *authUser) id() string {
	if u.ID != "" {
		return u.ID
	}
	if u.User != nil {
		return u.User.ID
	}
	return ""
}

// InviteUserByEmail sends a Supabase invite email. data is stored as the
// user's metadata. It returns the new auth user's id.
func (c *AdminClient) InviteUserByEmail(ctx context.Context, email string, data map[string]any) (string, error) {
	var out authUser
	err := c.do(ctx, http.MethodPost, "/auth/v1/invite", map[string]any{
		"email": email,
		"data":  data,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("inviting user: %w", err)
	}
	if out.id() == "" {
		return "", fmt.Errorf("inviting user: response has no user id")
	}
	return out.id(), nil
}

// SignUp registers an email/password identity. Supabase sends the
// confirmation email when the project requires one.
func (c *AdminClient) SignUp(ctx context.Context, email, password string, data map[string]any) (string, error) {
	var out authUser
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", map[string]any{
		"email":    email,
		"password": password,
		"data":     data,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("signing up user: %w", err)
	}
	if out.id() == "" {
		return "", fmt.Errorf("signing up user: response has no user id")
	}
	return out.id(), nil
}

// DeleteUser removes an auth identity. A missing user is not an error.
func (c *AdminClient) DeleteUser(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+id, nil, nil)
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// StatusError is a non-2xx answer from the Auth API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase auth returned %d: %s", e.Status, e.Body)
}

func isStatus(err error, status int) bool {
	se, ok := err.(*StatusError)
	return ok && se.Status == status
}

func (c *AdminClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
