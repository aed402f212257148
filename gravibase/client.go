// Package gravibase is the HTTP client for the GraviBase backend. It owns
// the session/token lifecycle: bearer attachment, transparent refresh on
// authorization failures, and session eviction when refresh is no longer
// possible. All failures surface as *APIError values carrying a Code.
package gravibase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gravisales/crm/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// errorResponse is the error body shape GraviBase returns on failures.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Client talks to a single GraviBase project.
type Client struct {
	baseURL string
	project string
	store   session.Store
	log     zerolog.Logger
	timeout time.Duration

	onSessionExpired func()

	// authed routes through the session transport; bare is for the token
	// endpoints, which must stay outside the refresh-retry chain.
	authed *http.Client
	bare   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// WithTimeout sets the per-request timeout for all backend calls.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithOnSessionExpired registers a callback fired when a token refresh
// fails terminally and the stored session has been cleared. The UI uses it
// to fall back to the login screen.
func WithOnSessionExpired(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New creates a client for the given GraviBase base URL and project code.
func New(baseURL, project string, store session.Store, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		store:   store,
		log:     zerolog.Nop(),
		timeout: defaultTimeout,
	}

	for _, opt := range options {
		opt(c)
	}

	c.bare = &http.Client{Timeout: c.timeout}
	c.authed = &http.Client{
		Timeout: c.timeout,
		Transport: &sessionTransport{
			base:      http.DefaultTransport,
			store:     store,
			refresh:   c.refreshToken,
			onExpired: c.sessionExpired,
			log:       c.log,
		},
	}
	return c
}

// Store exposes the session store the client was built with.
func (c *Client) Store() session.Store {
	return c.store
}

// Restore returns the persisted session, recovering the username from the
// access token claims when the stored session predates the username field.
func (c *Client) Restore() (session.Session, error) {
	sess, err := c.store.Get()
	if err != nil {
		return session.Session{}, errors.Wrap(err, "[Client.Restore] session read")
	}
	if sess.Authenticated() && sess.Username == "" {
		sess.Username = UsernameFromToken(sess.AccessToken)
	}
	return sess, nil
}

// Logout destroys all persisted session state.
func (c *Client) Logout() error {
	c.log.Info().Msg("logging out, clearing session")
	if err := c.store.Clear(); err != nil {
		return errors.Wrap(err, "[Client.Logout] store clear")
	}
	return nil
}

func (c *Client) sessionExpired() {
	c.log.Warn().Msg("token refresh failed, session evicted")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) newFormRequest(ctx context.Context, method, endpoint string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.newFormRequest] build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.newJSONRequest] marshal body")
		}
		reader = bytes.NewReader(blob)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.newJSONRequest] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func decodeJSON(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

// decodeError reads the GraviBase error body, tolerating non-JSON output.
func decodeError(resp *http.Response) errorResponse {
	defer func() { _ = resp.Body.Close() }()
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errorResponse{Error: "server_error"}
	}
	return body
}

// transportError maps a transport-level failure to the taxonomy, keeping
// any APIError already produced inside the round trip (the refresh path).
func transportError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return apiError(CodeNetworkError, 0, err)
}
