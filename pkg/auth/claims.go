package auth

import (
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	PharmacyID uuid.UUID
	Username   string
	Role       enums.UserRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. The subject
// carries the username, matching what existing clients already decode.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	PharmacyID uuid.UUID      `json:"farmacia_id"`
	Role       enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
