// Package auth verifies bearer tokens issued by the external auth provider
// and maps their claims onto the application's user shape.
package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// User is the application's view of an authenticated account. The shape is
// mapped from the provider's claims; nothing here is stored locally.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Guest is the user attached to unauthenticated requests when guest mode is
// enabled.
var Guest = User{ID: "guest", Name: "Guest"}

// Claims carries the provider token claims this service cares about.
type Claims struct {
	jwt.RegisteredClaims
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// UserFromClaims maps token claims onto a User. Display name falls back from
// profile metadata to email to a generic label.
func UserFromClaims(c *Claims) User {
	u := User{ID: c.Subject, Email: c.Email}
	if name, ok := c.Metadata["name"].(string); ok && name != "" {
		u.Name = name
	} else if c.Email != "" {
		u.Name = c.Email
	} else {
		u.Name = "User"
	}
	if avatar, ok := c.Metadata["avatar_url"].(string); ok {
		u.Avatar = avatar
	}
	return u
}

const userKey = "auth.user"

var errNoBearer = errors.New("missing bearer token")

// Middleware authenticates requests with an HS256 bearer token. When
// allowGuest is set, requests without a token proceed as the guest user.
func Middleware(secret string, allowGuest bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromRequest(c, secret)
		if err != nil {
			if errors.Is(err, errNoBearer) && allowGuest {
				c.Set(userKey, Guest)
				c.Next()
				return
			}
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func userFromRequest(c *gin.Context, secret string) (User, error) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return User{}, errNoBearer
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return User{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return User{}, errors.New("invalid token")
	}
	return UserFromClaims(claims), nil
}

// CurrentUser returns the user attached by Middleware.
func CurrentUser(c *gin.Context) User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(User); ok {
			return u
		}
	}
	return Guest
}
