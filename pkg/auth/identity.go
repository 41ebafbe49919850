package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/VulcanWM/threadofclues/pkg/config"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/utils"
)

// Role represents the resolved caller role for a request.
type Role int

const (
	RoleUnauth Role = iota
	RoleFrontend
	RoleBackend
	RoleAdmin
)

// AnonymousUser is the sentinel identity used when no verified username is
// available and the deployment allows anonymous play.
const AnonymousUser = "anonymous"

// SecConfig mirrors the security-related configuration used to drive
// authentication, CORS and rate limiting behavior. Put here so limiter.go
// and gateway.go can reference the shared type.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	IPWhitelist    []string
	BackendKeys    map[string]struct{}
	FrontendKeys   map[string]struct{}
	AdminKeys      map[string]struct{}
	// AllowUnauth lets requests without a verified username through as the
	// anonymous sentinel instead of rejecting them.
	AllowUnauth bool
}

type ctxUserKey struct{}

// RequireSignedUser verifies the HMAC signature over X-User-ID and injects
// the verified username into the request context. Backend and admin callers
// may supply an unsigned X-User-ID; they are trusted to impersonate (the
// host platform resolves identities upstream and relays them here). With no
// identity headers at all the request proceeds as the anonymous sentinel
// when AllowUnauth is set, otherwise it is rejected.
func RequireSignedUser(cfg SecConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := r.Header.Get("X-Role-Name")
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			sig := strings.TrimSpace(r.Header.Get("X-User-Signature"))

			if sig == "" {
				if (role == "backend" || role == "admin") && userID != "" {
					if ok, msg := validateUsername(userID); !ok {
						utils.JSONError(w, http.StatusBadRequest, msg)
						return
					}
					next.ServeHTTP(w, withUser(r, userID))
					return
				}
				if userID == "" && cfg.AllowUnauth {
					next.ServeHTTP(w, withUser(r, AnonymousUser))
					return
				}
				logger.Warn("missing_signature_headers", "path", r.URL.Path, "remote", r.RemoteAddr)
				utils.JSONError(w, http.StatusUnauthorized, "missing signature headers")
				return
			}

			if userID == "" {
				logger.Warn("missing_signature_headers", "path", r.URL.Path, "remote", r.RemoteAddr)
				utils.JSONError(w, http.StatusUnauthorized, "missing signature headers")
				return
			}

			keys := config.GetSigningKeys()
			if len(keys) == 0 {
				logger.Error("no_signing_keys_configured")
				utils.JSONError(w, http.StatusInternalServerError, "server misconfigured: no signing secrets available")
				return
			}

			ok := false
			for k := range keys {
				mac := hmac.New(sha256.New, []byte(k))
				mac.Write([]byte(userID))
				expected := hex.EncodeToString(mac.Sum(nil))
				if hmac.Equal([]byte(expected), []byte(sig)) {
					ok = true
					break
				}
			}
			if !ok {
				logger.Warn("invalid_signature", "user", userID)
				utils.JSONError(w, http.StatusUnauthorized, "invalid signature")
				return
			}
			if ok, msg := validateUsername(userID); !ok {
				utils.JSONError(w, http.StatusBadRequest, msg)
				return
			}
			next.ServeHTTP(w, withUser(r, userID))
		})
	}
}

func withUser(r *http.Request, username string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxUserKey{}, username)
	return r.WithContext(ctx)
}

// UsernameFromContext returns the resolved username or empty string.
func UsernameFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Username is the canonical resolver handlers call: the context identity set
// by RequireSignedUser, or the anonymous sentinel when absent.
func Username(r *http.Request) string {
	if u := UsernameFromContext(r.Context()); u != "" {
		return u
	}
	return AnonymousUser
}

func validateUsername(u string) (bool, string) {
	if u == "" {
		return false, "username required"
	}
	if len(u) > 128 {
		return false, "username too long"
	}
	if strings.ContainsAny(u, ": \t\n") {
		// Usernames are embedded in store keys; reject separators
		return false, "username contains invalid characters"
	}
	return true, ""
}
