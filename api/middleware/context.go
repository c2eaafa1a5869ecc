package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxRole       contextKey = "actor_role"
	ctxPharmacyID contextKey = "pharmacy_id"
	ctxAccessID   contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func PharmacyIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxPharmacyID)
}

// AccessIDFromContext returns the jti of the access token, which keys the
// refresh session.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithPharmacyID injects the tenant identifier into the context for downstream handlers.
func WithPharmacyID(ctx context.Context, pharmacyID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPharmacyID, pharmacyID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, string(role))
}

// WithAccessID injects the access token id into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID     uuid.UUID
	PharmacyID uuid.UUID
	Role       enums.UserRole
}

// PrincipalFromContext parses the identifiers seeded by Auth. ok is false
// when any of them is missing or malformed.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return Principal{}, false
	}
	pharmacyID, err := uuid.Parse(PharmacyIDFromContext(ctx))
	if err != nil {
		return Principal{}, false
	}
	return Principal{
		UserID:     userID,
		PharmacyID: pharmacyID,
		Role:       enums.UserRole(RoleFromContext(ctx)),
	}, true
}

// RequirePrincipal is PrincipalFromContext for handlers that must reject
// anonymous requests.
func RequirePrincipal(ctx context.Context) (Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	return principal, nil
}
