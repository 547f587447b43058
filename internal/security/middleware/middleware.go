package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
	"github.com/aryan0dhankhar/pgledger/internal/security"
	"github.com/aryan0dhankhar/pgledger/internal/security/audit"
	"github.com/aryan0dhankhar/pgledger/internal/security/auth"
	"github.com/aryan0dhankhar/pgledger/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// LoginPath is rate limited per client address instead of per operator
const LoginPath = "/api/auth/login"

var publicPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
	LoginPath:  true,
}

// IsPublic reports whether path is served without a token
func IsPublic(path string) bool {
	return publicPaths[path]
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RequestID attaches a request id to the context and response headers and logs
// the completed request.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(audit.WithRequestID(r.Context(), reqID)))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// CORS honours the configured origins. Preflight requests end here.
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if len(allowed) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowed[0])
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// JWTMiddleware requires a bearer token on every non-public path. Websocket
// paths may pass it as the access_token query parameter.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var tokenString string
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				t, err := auth.ExtractToken(authHeader)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "invalid auth")
					return
				}
				tokenString = t
			} else if strings.HasPrefix(r.URL.Path, "/ws/") {
				tokenString = r.URL.Query().Get("access_token")
			}
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "missing auth")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize checks the operator's role against the permission the route needs
func Authorize(authz *security.AuthorizationService, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}
			perm := security.PermissionFor(r.Method, r.URL.Path)
			if err := authz.ValidatePermission(domain.Role(claims.Role), perm); err != nil {
				auditLog.LogDenied(r.Context(), claims.OperatorID, err.Error())
				writeError(w, http.StatusForbidden, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits authenticated callers per operator and login
// attempts per client address.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == LoginPath {
				if !limiter.AllowStrict(clientIP(r), 10, time.Minute) {
					log.Warn("login rate limit exceeded", slog.String("client", clientIP(r)))
					writeError(w, http.StatusTooManyRequests, "too many login attempts")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(OperatorID(r.Context())) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every mutating API call with its outcome
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodOptions || r.Method == http.MethodHead ||
				!strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == LoginPath {
				next.ServeHTTP(w, r)
				return
			}
			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			resource, id := resourceOf(r.URL.Path)
			status := "ok"
			if sw.status >= http.StatusBadRequest {
				status = "failed"
			}
			auditLog.LogAction(r.Context(), OperatorID(r.Context()), strings.ToLower(r.Method)+" "+r.URL.Path,
				resource, id, status, http.StatusText(sw.status))
		})
	}
}

// resourceOf splits /api/<resource>/<id>/... into resource and id
func resourceOf(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	if len(parts) < 3 {
		return parts[1], ""
	}
	return parts[1], parts[2]
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

// OperatorID returns the authenticated operator id, or "" for public requests
func OperatorID(ctx context.Context) string {
	if c := GetClaimsFromContext(ctx); c != nil {
		return c.OperatorID
	}
	return ""
}
