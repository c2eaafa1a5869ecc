package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/pkg/config"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/security"
)

const auditEntity = "users"

var validate = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) error
}

// Service administers the staff accounts of a pharmacy.
type Service interface {
	List(ctx context.Context, pharmacyID uuid.UUID) ([]UserDTO, error)
	Create(ctx context.Context, pharmacyID uuid.UUID, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, pharmacyID, actorID, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Deactivate(ctx context.Context, pharmacyID, actorID, id uuid.UUID) error
}

type service struct {
	tx          txRunner
	repo        *Repository
	audit       audit.Recorder
	sessions    sessionRevoker
	passwordCfg config.PasswordConfig
}

// NewService builds the user administration service.
func NewService(tx txRunner, repo *Repository, recorder audit.Recorder, sessions sessionRevoker, passwordCfg config.PasswordConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session revoker required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		audit:       recorder,
		sessions:    sessions,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) List(ctx context.Context, pharmacyID uuid.UUID) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, pharmacyID uuid.UUID, input CreateUserInput) (*UserDTO, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	switch {
	case username == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	case fullName == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre_completo is required")
	case !input.Role.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rol is invalid")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		PharmacyID:   pharmacyID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         input.Role,
		IsActive:     true,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			return mapUniqueViolation(err, "db: insert user")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionCreate,
			RecordID:   user.ID.String(),
			Current:    FromModel(user),
		})
	})
	if err != nil {
		return nil, wrapTxError(err, "create user")
	}
	return FromModel(user), nil
}

// Update changes an account. Role, password or status changes revoke the
// user's refresh sessions once the change is committed.
func (s *service) Update(ctx context.Context, pharmacyID, actorID, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre_completo cannot be empty")
		}
		updates["full_name"] = name
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rol is invalid")
		}
		updates["role"] = *input.Role
	}
	if input.Password != nil {
		hash, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if input.IsActive != nil {
		if !*input.IsActive && actorID == id {
			return nil, cannotDeactivateSelf()
		}
		updates["is_active"] = *input.IsActive
	}

	var (
		updated *models.User
		revoke  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		previous, err := s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			updated = previous
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		if err := repo.Update(ctx, pharmacyID, id, updates); err != nil {
			return mapUniqueViolation(err, "db: update user")
		}
		updated, err = s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		revoke = input.Password != nil || updated.Role != previous.Role || updated.IsActive != previous.IsActive
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionUpdate,
			RecordID:   id.String(),
			Previous:   FromModel(previous),
			Current:    FromModel(updated),
		})
	})
	if err != nil {
		return nil, wrapTxError(err, "update user")
	}
	if revoke {
		if err := s.sessions.RevokeUser(ctx, id.String()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke user sessions")
		}
	}
	return FromModel(updated), nil
}

// Deactivate soft deletes an account and drops its sessions.
func (s *service) Deactivate(ctx context.Context, pharmacyID, actorID, id uuid.UUID) error {
	if actorID == id {
		return cannotDeactivateSelf()
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		previous, err := s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, pharmacyID, id, map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate user")
		}
		current := *previous
		current.IsActive = false
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionDelete,
			RecordID:   id.String(),
			Previous:   FromModel(previous),
			Current:    FromModel(&current),
		})
	})
	if err != nil {
		return wrapTxError(err, "deactivate user")
	}
	if err := s.sessions.RevokeUser(ctx, id.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke user sessions")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, pharmacyID, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindInPharmacy(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return user, nil
}

func (s *service) hashPassword(password string) (string, error) {
	if err := security.CheckPasswordPolicy(password); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func validateEmail(email string) error {
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	return nil
}

func mapUniqueViolation(err error, msg string) error {
	switch {
	case db.IsUniqueViolation(err, "uq_users_username", "users.username"):
		return pkgerrors.New(pkgerrors.CodeConflict, "username already registered")
	case db.IsUniqueViolation(err, "uq_users_email", "users.email"):
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
}

func cannotDeactivateSelf() error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "you cannot deactivate your own account")
}

func wrapTxError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
