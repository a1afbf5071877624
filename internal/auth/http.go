package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

const (
	loginRatePerSecond = 5.0 / 60
	loginBurst         = 5

	DefaultTokenTTL = 15 * time.Minute
)

type Server struct {
	Log   *zap.Logger
	Admin Admin
	JWT   *TokenMaker
	TTL   time.Duration
}

// Routes serves token issuance; mount it under /auth.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	loginLimiter := kit.NewIPRateLimiter(loginRatePerSecond, loginBurst)
	r.With(loginLimiter.Middleware).Post("/token", s.handleToken)

	return r
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	if err := s.Admin.Verify(req.Username, req.Password); err != nil {
		if s.Log != nil {
			s.Log.Warn("admin login rejected", zap.String("username", req.Username))
		}
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	tok, err := s.JWT.New(s.Admin.Username, RoleAdmin, ttl)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if claims.Role != RoleAdmin {
				kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
