package gravibase

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gravisales/crm/internal/utils"
	"github.com/gravisales/crm/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const requestIDHeader = "X-Request-Id"

type refreshFunc func(ctx context.Context, refreshToken string) (*TokenResponse, error)

// sessionTransport attaches the stored bearer token to every outgoing
// request and recovers from its expiry: on a 401 it refreshes the token
// pair and re-issues the original request exactly once. Requests that fail
// with 401 at the same time share a single in-flight refresh via the
// singleflight group, so a rotating refresh token is spent only once.
type sessionTransport struct {
	base      http.RoundTripper
	store     session.Store
	refresh   refreshFunc
	onExpired func()
	group     singleflight.Group
	log       zerolog.Logger
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sess, err := t.store.Get()
	if err != nil {
		return nil, errors.Wrap(err, "[sessionTransport.RoundTrip] session read")
	}

	resp, err := t.base.RoundTrip(t.authorize(req, sess.AccessToken))
	if err != nil {
		return nil, err
	}

	// An unauthenticated request was rejected on its own merits; there is
	// nothing to refresh. Same for any non-401 response.
	if resp.StatusCode != http.StatusUnauthorized || !sess.Authenticated() {
		return resp, nil
	}

	if sess.RefreshToken == "" {
		drain(resp)
		t.evict()
		return nil, apiError(CodeInvalidCredentials, http.StatusUnauthorized, errors.New("no refresh token available"))
	}

	refreshed, err, shared := t.group.Do(sess.RefreshToken, func() (any, error) {
		return t.doRefresh(req.Context(), sess)
	})
	if err != nil {
		drain(resp)
		t.evict()
		return nil, err
	}
	if shared {
		t.log.Debug().Msg("shared an in-flight token refresh")
	}

	drain(resp)
	return t.retry(req, refreshed.(session.Session).AccessToken)
}

// doRefresh runs inside the singleflight group. A request that lost the
// race may arrive after the winner already rotated the tokens, so the
// store is re-checked before spending the refresh token.
func (t *sessionTransport) doRefresh(ctx context.Context, stale session.Session) (session.Session, error) {
	if current, err := t.store.Get(); err == nil &&
		current.Authenticated() && current.AccessToken != stale.AccessToken {
		return current, nil
	}

	tr, err := t.refresh(ctx, stale.RefreshToken)
	if err != nil {
		return session.Session{}, err
	}

	next := stale.Rotate(utils.Value(tr.AccessToken), utils.Value(tr.RefreshToken), tr.ExpiresIn)
	if err := t.store.Set(next); err != nil {
		return session.Session{}, errors.Wrap(err, "[sessionTransport.doRefresh] persist rotated tokens")
	}

	t.log.Info().Msg("access token refreshed")
	return next, nil
}

// retry re-issues the original request once with the fresh access token.
func (t *sessionTransport) retry(req *http.Request, accessToken string) (*http.Response, error) {
	clone := t.authorize(req, accessToken)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "[sessionTransport.retry] rewind request body")
		}
		clone.Body = body
	}
	return t.base.RoundTrip(clone)
}

// authorize clones req (RoundTrippers must not mutate their input) with a
// fresh request ID and, when a token is held, the bearer header.
func (t *sessionTransport) authorize(req *http.Request, accessToken string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set(requestIDHeader, uuid.NewString())
	if accessToken != "" {
		clone.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return clone
}

// evict is the terminal failure path: no further retries, the user must
// re-authenticate.
func (t *sessionTransport) evict() {
	if err := t.store.Clear(); err != nil {
		t.log.Error().Err(err).Msg("failed to clear session store")
	}
	if t.onExpired != nil {
		t.onExpired()
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
