// Package authmw verifies Keycloak-issued access tokens and exposes the
// directory client used to look up assignable users. Credential storage and
// login flows live in Keycloak, not here.
package authmw

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys the middleware populates for handlers.
const (
	CtxUsername = "auth.username"
	CtxEmail    = "auth.email"
	CtxName     = "auth.name"
	CtxSubject  = "auth.sub"
)

type KeycloakAuth struct {
	Issuer   string
	Audience string
	ClientID string

	JWKS *keyfunc.JWKS
	// clock skew tolerance
	Leeway time.Duration
}

// NewKeycloakAuth builds the verifier once at startup; the JWKS refreshes
// itself in the background instead of being fetched per request.
func NewKeycloakAuth(jwksURL, issuer, audience, clientID string) (*KeycloakAuth, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute * 5,
		RefreshTimeout:   time.Second * 10,
	})
	if err != nil {
		return nil, err
	}

	return &KeycloakAuth{
		Issuer:   issuer,
		Audience: audience,
		ClientID: clientID,
		JWKS:     jwks,
		Leeway:   30 * time.Second,
	}, nil
}

type claims struct {
	jwt.RegisteredClaims

	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
}

// RequireAuth rejects requests without a valid bearer token and puts the
// caller's identity into the gin context. Any authenticated user passes;
// per-project authorization happens downstream against the policy table.
func (a *KeycloakAuth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := extractAccessToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

			return
		}

		cl := &claims{}
		_, err = jwt.ParseWithClaims(tokenStr, cl, a.JWKS.Keyfunc,
			jwt.WithIssuer(a.Issuer),
			jwt.WithAudience(a.Audience),
			jwt.WithLeeway(a.Leeway),
			jwt.WithValidMethods([]string{"RS256"}),
		)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})

			return
		}

		name := cl.Name
		if name == "" {
			name = cl.PreferredUsername
		}

		c.Set(CtxUsername, cl.PreferredUsername)
		c.Set(CtxEmail, cl.Email)
		c.Set(CtxName, name)
		c.Set(CtxSubject, cl.Subject)

		c.Next()
	}
}

func extractAccessToken(c *gin.Context) (string, error) {
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:]), nil
	}

	// cookie fallback, also used by the websocket endpoint where custom
	// headers are awkward for browser clients
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", errors.New("missing access token")
}
