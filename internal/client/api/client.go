// Package api is the HTTP client for the projectgate server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/netx"
)

// Error is a failed API call decoded from the server error body.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Code)
	}
	return e.Message
}

// Unwrap lets callers use errors.Is with the common sentinels.
func (e *Error) Unwrap() error {
	switch e.Code {
	case "VALIDATION_ERROR":
		return common.ErrValidation
	case "DUPLICATE_USERNAME":
		return common.ErrDuplicateUsername
	case "INVALID_CREDENTIALS":
		return common.ErrInvalidCredentials
	case "UNAUTHENTICATED":
		return common.ErrUnauthenticated
	case "FORBIDDEN":
		return common.ErrForbidden
	case "NOT_FOUND":
		return common.ErrNotFound
	default:
		return common.ErrInternal
	}
}

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     *int64    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Me struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Client keeps the access token obtained by Signup or Login and sends it
// with every authenticated call. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	req, err := netx.NewJSONRequest(ctx, method, c.baseURL+path, in)
	if err != nil {
		return err
	}
	if t := c.Token(); t != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+t)
	}

	err = netx.Do(c.http, req, out)

	var se *netx.StatusError
	if errors.As(err, &se) {
		return decodeError(se)
	}
	return err
}

func decodeError(se *netx.StatusError) error {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(se.Body, &body); err != nil || body.Error.Code == "" {
		return &Error{StatusCode: se.StatusCode, Code: "INTERNAL_SERVER_ERROR", Message: se.Status}
	}
	return &Error{StatusCode: se.StatusCode, Code: body.Error.Code, Message: body.Error.Message}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) error {
	var out tokenResponse
	in := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, path, in, &out); err != nil {
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/signup", username, password)
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/login", username, password)
}

// Logout revokes the current token on the server and forgets it locally,
// even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.call(ctx, http.MethodPost, "/logout", nil, nil)
	c.setToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.call(ctx, http.MethodGet, "/protected", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.call(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func projectBody(name, description string) map[string]string {
	return map[string]string{"name": name, "description": description}
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	var out Project
	if err := c.call(ctx, http.MethodPost, "/projects", projectBody(name, description), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id int64, name, description string) (*Project, error) {
	var out Project
	path := "/projects/" + strconv.FormatInt(id, 10)
	if err := c.call(ctx, http.MethodPut, path, projectBody(name, description), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/projects/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) SetRole(ctx context.Context, username, role string) (*User, error) {
	var out User
	path := "/users/" + url.PathEscape(username) + "/role"
	if err := c.call(ctx, http.MethodPut, path, map[string]string{"role": role}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
