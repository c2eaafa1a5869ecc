package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/farmacia-backend/api/responses"
	"github.com/angelmondragon/farmacia-backend/internal/audit"
	pkgAuth "github.com/angelmondragon/farmacia-backend/pkg/auth"
	"github.com/angelmondragon/farmacia-backend/pkg/auth/session"
	"github.com/angelmondragon/farmacia-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller's identity, pharmacy and role. A nil verifier skips the session
// store lookup.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r, claims, logg)))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (*pkgAuth.AccessTokenClaims, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		msg := "invalid token"
		if pkgAuth.IsExpired(err) {
			msg = "token expired"
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier == nil {
		return claims, nil
	}
	live, err := verifier.HasSession(r.Context(), claims.ID)
	switch {
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	case !live:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}
	return claims, nil
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func withClaims(r *http.Request, claims *pkgAuth.AccessTokenClaims, logg *logger.Logger) context.Context {
	ctx := WithUserID(r.Context(), claims.UserID.String())
	ctx = WithRole(ctx, claims.Role)
	ctx = WithPharmacyID(ctx, claims.PharmacyID.String())
	ctx = WithAccessID(ctx, claims.ID)

	userID := claims.UserID
	ctx = audit.WithMeta(ctx, audit.Meta{
		UserID:    &userID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if logg != nil {
		ctx = logg.WithActor(ctx, claims.UserID.String(), claims.PharmacyID.String(), string(claims.Role))
	}
	return ctx
}
