package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/sulaiman-00/FoodCart/internal/domain/auth"
)

// identityKey is the context key for the authenticated API key identity.
type identityKey struct{}

// IdentityFromContext extracts the authenticated identity from the
// context; it returns nil outside an authenticated request.
func IdentityFromContext(ctx context.Context) *auth.APIKeyInfo {
	info, _ := ctx.Value(identityKey{}).(*auth.APIKeyInfo)
	return info
}

// Security authenticates API requests via HMAC-SHA256 hashed API keys
// carried in the X-API-Key header.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security middleware set with the given API key
// repository and HMAC pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate validates the X-API-Key header by computing its HMAC-SHA256,
// looking it up, and comparing in constant time. The resolved identity is
// stored on the request context.
func (s *Security) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			respondError(w, r, http.StatusUnauthorized, "missing API key")
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireScope gates a route on the authenticated key carrying the scope.
func (s *Security) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := IdentityFromContext(r.Context())
			if info == nil || !info.HasScope(scope) {
				respondError(w, r, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
