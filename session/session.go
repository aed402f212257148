package session

import (
	"time"

	"golang.org/x/oauth2"
)

// Session is the client-side state that survives restarts: the current
// token pair and the remembered username. Created on successful login or
// registration, mutated in place on refresh, destroyed on logout or when a
// refresh finally fails.
type Session struct {
	oauth2.Token
	Username string `json:"username,omitempty"`
}

// New builds a session from a freshly issued token pair.
func New(username, accessToken, refreshToken string, expiresIn int) Session {
	s := Session{
		Token: oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
		},
		Username: username,
	}
	if expiresIn > 0 {
		s.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return s
}

// Authenticated reports whether the session holds an access token.
// Expiry is not checked here: an expired token is still attached and the
// backend's 401 drives the refresh path.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Rotate replaces the access token and, when the backend rotated it, the
// refresh token. An empty newRefreshToken keeps the existing one.
func (s Session) Rotate(newAccessToken, newRefreshToken string, expiresIn int) Session {
	s.Token.AccessToken = newAccessToken
	if newRefreshToken != "" {
		s.Token.RefreshToken = newRefreshToken
	}
	if expiresIn > 0 {
		s.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return s
}
