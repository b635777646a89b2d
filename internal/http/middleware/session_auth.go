package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const sessionClaimsKey contextKey = "sessionClaims"

// SessionClaims identify a signed-in staff session for one board.
type SessionClaims struct {
	OwnerKey string `json:"owner_key"`
	jwt.RegisteredClaims
}

// ErrNoSecret is returned when sessions are not configured.
var ErrNoSecret = errors.New("middleware: session secret not configured")

// IssueSession signs a session for owner valid for ttl.
func IssueSession(secret, owner string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrNoSecret
	}
	expires := now.Add(ttl)
	claims := SessionClaims{
		OwnerKey: owner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// SessionJWT admits requests carrying a valid session for owner. The token is
// read from the Authorization header or, for websocket upgrades that cannot
// set headers, from the access_token query parameter.
func SessionJWT(secret, owner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "session auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString := bearerToken(r)
			if tokenString == "" {
				http.Error(w, "missing session token", http.StatusUnauthorized)
				return
			}
			claims := SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}
			if claims.OwnerKey != owner {
				http.Error(w, "session belongs to another board", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}

// SessionFromContext returns the session claims if present.
func SessionFromContext(ctx context.Context) (SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(SessionClaims)
	return claims, ok
}
