package gravibase

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/gravisales/crm/internal/utils"
	"github.com/gravisales/crm/session"
)

// TokenResponse represents the payload returned by the GraviBase token
// endpoints (login, registration, and refresh).
type TokenResponse struct {
	// AccessToken is the JWT used to access protected resources.
	// Usage: "Authorization: Bearer <access_token>".
	AccessToken *string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token. A hint -
	// the authoritative expiry is the JWT's "exp" claim.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// May rotate on each refresh; an absent value keeps the current one.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// RefreshExpiresIn is the lifetime in seconds of the refresh token.
	RefreshExpiresIn int `json:"refresh_expires_in,omitempty"`

	// IdToken is the OIDC ID token, present when the project issues one.
	IdToken *string `json:"id_token,omitempty"`

	// Scope is the space-separated list of granted permissions.
	Scope string `json:"scope,omitempty"`
}

// Session converts the wire payload into the durable session shape.
func (tr *TokenResponse) Session(username string) session.Session {
	return session.New(username, utils.Value(tr.AccessToken), utils.Value(tr.RefreshToken), tr.ExpiresIn)
}

// UsernameFromToken pulls the username out of an access token without
// verifying the signature. Verification is the backend's job; the client
// only needs the identity hint to restore a session whose store predates
// the username key.
func UsernameFromToken(accessToken string) string {
	if accessToken == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return ""
	}

	if username, ok := claims["preferred_username"].(string); ok && username != "" {
		return username
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}
