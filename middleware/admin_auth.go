package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AIStudyPlans/scheduled-backend/config"
	apperrors "github.com/AIStudyPlans/scheduled-backend/errors"
	"github.com/AIStudyPlans/scheduled-backend/logger"
	"github.com/gin-gonic/gin"
	goJWT "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	jwxJWT "github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// AdminSessionCookie carries the admin session JWT when no Authorization
	// header is present.
	AdminSessionCookie = "sched_session"
	// DevOverrideCookie is the development shortcut flag.
	DevOverrideCookie = "isAdmin"
	// IsAdminKey marks an authenticated admin request in the gin context.
	IsAdminKey = "isAdmin"

	adminClaim = "is_admin"
)

// AdminVerifier checks whether a session token carries the admin capability.
type AdminVerifier interface {
	VerifyAdmin(ctx context.Context, tokenString string) (bool, error)
}

// HS256Verifier validates tokens signed with the shared admin secret.
type HS256Verifier struct {
	secret []byte
}

var _ AdminVerifier = (*HS256Verifier)(nil)

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

func (v *HS256Verifier) VerifyAdmin(_ context.Context, tokenString string) (bool, error) {
	token, err := goJWT.Parse(tokenString,
		func(t *goJWT.Token) (any, error) {
			if _, ok := t.Method.(*goJWT.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		goJWT.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return false, fmt.Errorf("hs256 validation failed: %w", err)
	}

	claims, ok := token.Claims.(goJWT.MapClaims)
	if !ok {
		return false, fmt.Errorf("unexpected claims type")
	}
	isAdmin, _ := claims[adminClaim].(bool)
	return isAdmin, nil
}

// JWKSVerifier validates tokens against a remote keyset, refreshed in the
// background by the jwx cache.
type JWKSVerifier struct {
	cache *jwk.Cache
	url   string
}

var _ AdminVerifier = (*JWKSVerifier)(nil)

func NewJWKSVerifier(ctx context.Context, jwksURL string) (*JWKSVerifier, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}
	return &JWKSVerifier{cache: cache, url: jwksURL}, nil
}

func (v *JWKSVerifier) VerifyAdmin(ctx context.Context, tokenString string) (bool, error) {
	set, err := v.cache.Get(ctx, v.url)
	if err != nil {
		return false, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	token, err := jwxJWT.Parse([]byte(tokenString),
		jwxJWT.WithKeySet(set),
		jwxJWT.WithValidate(true),
	)
	if err != nil {
		return false, fmt.Errorf("jwks validation failed: %w", err)
	}

	val, ok := token.Get(adminClaim)
	if !ok {
		return false, nil
	}
	isAdmin, _ := val.(bool)
	return isAdmin, nil
}

// BuildAdminVerifiers assembles the configured verifiers in the order they
// are tried: static secret first, remote keyset second.
func BuildAdminVerifiers(ctx context.Context, cfg *config.AdminConfig) ([]AdminVerifier, error) {
	var verifiers []AdminVerifier
	if cfg.JWTSecret != "" {
		verifiers = append(verifiers, NewHS256Verifier(cfg.JWTSecret))
	}
	if cfg.JWKSURL != "" {
		jwks, err := NewJWKSVerifier(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, jwks)
	}
	return verifiers, nil
}

// AdminAuth guards the admin route group. A request passes when a session
// token (Bearer header or cookie) validates with any verifier and carries the
// admin claim, or, in development only, when the override cookie is set.
func AdminAuth(cfg *config.Config, verifiers ...AdminVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger()

		if token := extractSessionToken(c); token != "" {
			for _, verifier := range verifiers {
				isAdmin, err := verifier.VerifyAdmin(c.Request.Context(), token)
				if err != nil {
					log.Debugw("Admin token verification failed", "error", err)
					continue
				}
				if !isAdmin {
					_ = c.Error(apperrors.Forbidden("Admin access required", ""))
					c.Abort()
					return
				}
				c.Set(IsAdminKey, true)
				c.Next()
				return
			}
		}

		if cfg.Admin.DevOverride && cfg.IsDevelopment() {
			if flag, err := c.Cookie(DevOverrideCookie); err == nil && flag == "true" {
				log.Debugw("Admin access granted via development override",
					"client_ip", c.ClientIP())
				c.Set(IsAdminKey, true)
				c.Next()
				return
			}
		}

		_ = c.Error(apperrors.AuthenticationFailed("Admin authentication required"))
		c.Abort()
	}
}

// extractSessionToken pulls the session JWT from the Authorization header or
// the session cookie.
func extractSessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(AdminSessionCookie); err == nil {
		return cookie
	}
	return ""
}
