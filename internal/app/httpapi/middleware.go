package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// callerHeader carries the authenticated caller address once the auth
// middleware has verified the request. Handlers trust this header and
// nothing else.
const callerHeader = "X-Caller-Address"

// claims is the JWT payload issued to wallet-bound sessions. The addr claim
// is the caller's ledger address.
type claims struct {
	Address string `json:"addr"`
	jwt.RegisteredClaims
}

func (h *handler) wrapWithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+callerHeader)
		} else if origin != "" {
			http.Error(w, "CORS origin not allowed", http.StatusForbidden)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *handler) originAllowed(origin string) bool {
	for _, candidate := range h.corsOrigins {
		if c := strings.TrimSpace(candidate); c != "" && c == origin {
			return true
		}
	}
	return false
}

// wrapWithAuth resolves the caller address. A bearer JWT signed with the
// configured secret authenticates its addr claim; a configured dev token
// authenticates the address the client asserts in the caller header. Reads
// stay open; mutating methods without a caller are rejected.
func (h *handler) wrapWithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The header is trusted downstream, so strip whatever the client sent
		// before authentication decides its value.
		asserted := r.Header.Get(callerHeader)
		r.Header.Del(callerHeader)

		token := bearerToken(r)
		switch {
		case token != "" && h.isDevToken(token):
			if asserted != "" {
				r.Header.Set(callerHeader, asserted)
			}
		case token != "" && len(h.jwtSecret) > 0:
			addr, err := h.validateJWT(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid token"))
				return
			}
			r.Header.Set(callerHeader, addr)
		}

		if r.Header.Get(callerHeader) == "" && mutating(r.Method) {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("authentication required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

func (h *handler) isDevToken(token string) bool {
	for _, t := range h.devTokens {
		if t != "" && t == token {
			return true
		}
	}
	return false
}

func (h *handler) validateJWT(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	if c, ok := token.Claims.(*claims); ok && token.Valid && c.Address != "" {
		return c.Address, nil
	}
	return "", fmt.Errorf("invalid token")
}

// IssueJWT mints an HS256 token binding addr for ttl. Used by tooling and
// tests; the service itself never creates sessions.
func IssueJWT(secret []byte, addr string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Address: addr,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "journal-layer",
		},
	})
	return token.SignedString(secret)
}

// wrapWithAudit records every request outcome in the audit trail.
func (h *handler) wrapWithAudit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.audit.add(auditEntry{
			Time:       time.Now().UTC(),
			Caller:     r.Header.Get(callerHeader),
			Path:       r.URL.Path,
			Method:     r.Method,
			Status:     rec.status,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
