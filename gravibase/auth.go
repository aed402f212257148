package gravibase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gravisales/crm/session"
	"github.com/pkg/errors"
)

// ProfileAttribute is a single entry of a user's profile attribute list.
type ProfileAttribute struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// RegistrationParams carries everything needed to create a new user.
// Email and OrgCode are stored as profile attributes, GraviBase style.
type RegistrationParams struct {
	Username string
	Email    string
	Password string
	OrgCode  string
}

// Login authenticates against the project token endpoint and persists the
// resulting session. Bad credentials map to CodeInvalidCredentials and
// leave the store untouched.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	form := url.Values{
		"login":    {username},
		"password": {password},
	}

	req, err := c.newFormRequest(ctx, http.MethodPost, c.endpoint("auth", "projects", c.project, "token"), form)
	if err != nil {
		return session.Session{}, err
	}

	resp, err := c.bare.Do(req)
	if err != nil {
		return session.Session{}, apiError(CodeNetworkError, 0, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized:
		drain(resp)
		return session.Session{}, apiError(CodeInvalidCredentials, resp.StatusCode, nil)
	default:
		body := decodeError(resp)
		return session.Session{}, apiError(CodeServerError, resp.StatusCode, errors.New(body.Error))
	}

	var tr TokenResponse
	if err := decodeJSON(resp, &tr); err != nil {
		return session.Session{}, apiError(CodeServerError, resp.StatusCode, err)
	}

	sess := tr.Session(username)
	if err := c.store.Set(sess); err != nil {
		return session.Session{}, errors.Wrap(err, "[Client.Login] persist session")
	}

	c.log.Info().Str("username", username).Msg("login succeeded")
	return sess, nil
}

// refreshToken exchanges the refresh token for a new token pair. It uses
// the bare HTTP client: the refresh call must never re-enter the
// unauthorized-retry path.
func (c *Client) refreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{"refresh_token": {refreshToken}}

	req, err := c.newFormRequest(ctx, http.MethodPut, c.baseURL+"/auth/token", form)
	if err != nil {
		return nil, err
	}

	resp, err := c.bare.Do(req)
	if err != nil {
		return nil, apiError(CodeNetworkError, 0, err)
	}

	if resp.StatusCode != http.StatusOK {
		body := decodeError(resp)
		code := CodeServerError
		if resp.StatusCode == http.StatusUnauthorized {
			code = CodeInvalidCredentials
		}
		return nil, apiError(code, resp.StatusCode, errors.New(body.Error))
	}

	var tr TokenResponse
	if err := decodeJSON(resp, &tr); err != nil {
		return nil, apiError(CodeServerError, resp.StatusCode, err)
	}
	return &tr, nil
}

// Register creates a new user with the password flow and persists the
// issued session. 406 is the backend's password policy rejection, 409 a
// username conflict; both map to their taxonomy codes with no store write.
func (c *Client) Register(ctx context.Context, params RegistrationParams) (session.Session, error) {
	body := map[string]any{
		"username": params.Username,
		"flow":     "password",
		"value":    params.Password,
		"profile": []ProfileAttribute{
			{Attribute: "email", Value: params.Email},
			{Attribute: "orgCode", Value: params.OrgCode},
		},
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, c.endpoint("auth", "projects", c.project, "users"), body)
	if err != nil {
		return session.Session{}, err
	}

	resp, err := c.bare.Do(req)
	if err != nil {
		return session.Session{}, apiError(CodeNetworkError, 0, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// fall through to decode
	case http.StatusNotAcceptable:
		drain(resp)
		return session.Session{}, apiError(CodePasswordTooShort, resp.StatusCode, nil)
	case http.StatusConflict:
		drain(resp)
		return session.Session{}, apiError(CodeUsernameExists, resp.StatusCode, nil)
	default:
		errBody := decodeError(resp)
		if errBody.Error == "conflict" {
			return session.Session{}, apiError(CodeUsernameExists, resp.StatusCode, nil)
		}
		return session.Session{}, apiError(CodeRegistrationFailed, resp.StatusCode, errors.New(errBody.Error))
	}

	var tr TokenResponse
	if err := decodeJSON(resp, &tr); err != nil {
		return session.Session{}, apiError(CodeRegistrationFailed, resp.StatusCode, err)
	}

	sess := tr.Session(params.Username)
	if err := c.store.Set(sess); err != nil {
		return session.Session{}, errors.Wrap(err, "[Client.Register] persist session")
	}

	c.log.Info().Str("username", params.Username).Msg("registration succeeded")
	return sess, nil
}

// AssignRole grants a project role to a user. No request body.
func (c *Client) AssignRole(ctx context.Context, username, role string) error {
	endpoint := c.endpoint("security", "projects", c.project, "users", username, "roles", role)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.AssignRole] build request")
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(CodeRoleAssignmentFailed, resp.StatusCode, nil)
	}
	return nil
}

// Profile reads a user's profile attribute list. A 404 means the user has
// no app-side record yet, reported as CodeNotFound so callers can tell a
// new user apart from a failure.
func (c *Client) Profile(ctx context.Context, username string) ([]ProfileAttribute, error) {
	endpoint := c.endpoint("security", "projects", c.project, "users", username, "profile")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Profile] build request")
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return nil, transportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		drain(resp)
		return nil, apiError(CodeNotFound, resp.StatusCode, nil)
	default:
		drain(resp)
		return nil, apiError(CodeServerError, resp.StatusCode, nil)
	}

	var attrs []ProfileAttribute
	if err := decodeJSON(resp, &attrs); err != nil {
		return nil, apiError(CodeServerError, resp.StatusCode, err)
	}
	return attrs, nil
}

// UpdateProfile patches profile attributes onto a user record.
func (c *Client) UpdateProfile(ctx context.Context, username string, attrs []ProfileAttribute) error {
	endpoint := c.endpoint("security", "projects", c.project, "users", username, "profile")
	req, err := c.newJSONRequest(ctx, http.MethodPatch, endpoint, attrs)
	if err != nil {
		return err
	}

	resp, err := c.authed.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(CodeUpdateFailed, resp.StatusCode, nil)
	}
	return nil
}
