package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/pkg/config"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/security"
)

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) RevokeUser(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) (Service, *db.Client, *models.Pharmacy, *recordingRevoker) {
	t.Helper()
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	revoker := &recordingRevoker{}
	svc, err := NewService(client, NewRepository(client.DB()), audit.NewRecorder(), revoker, testPasswordCfg)
	require.NoError(t, err)
	return svc, client, pharmacy, revoker
}

func validInput() CreateUserInput {
	return CreateUserInput{
		Username: "mlopez",
		Email:    "MLopez@Example.com",
		Password: "cajero2024",
		FullName: "María López",
		Role:     enums.UserRoleCashier,
	}
}

func TestCreateHashesPasswordAndAudits(t *testing.T) {
	svc, client, pharmacy, _ := newTestService(t)

	created, err := svc.Create(context.Background(), pharmacy.ID, validInput())
	require.NoError(t, err)
	assert.Equal(t, "mlopez@example.com", created.Email)
	assert.True(t, created.IsActive)

	var stored models.User
	require.NoError(t, client.DB().First(&stored, "id = ?", created.ID).Error)
	assert.NotEqual(t, "cajero2024", stored.PasswordHash)
	ok, err := security.VerifyPassword("cajero2024", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	var entry models.AuditEntry
	require.NoError(t, client.DB().First(&entry).Error)
	assert.Equal(t, auditEntity, entry.Entity)
	assert.NotContains(t, string(entry.NewData), stored.PasswordHash)
}

func TestCreateRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	svc, _, pharmacy, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, pharmacy.ID, validInput())
	require.NoError(t, err)

	dupUsername := validInput()
	dupUsername.Email = "otra@example.com"
	_, err = svc.Create(ctx, pharmacy.ID, dupUsername)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	dupEmail := validInput()
	dupEmail.Username = "otro"
	_, err = svc.Create(ctx, pharmacy.ID, dupEmail)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	weak := validInput()
	weak.Username = "debil"
	weak.Email = "debil@example.com"
	weak.Password = "abcdefgh"
	_, err = svc.Create(ctx, pharmacy.ID, weak)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	badRole := validInput()
	badRole.Role = "GERENTE"
	_, err = svc.Create(ctx, pharmacy.ID, badRole)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	badEmail := validInput()
	badEmail.Email = "no-es-correo"
	_, err = svc.Create(ctx, pharmacy.ID, badEmail)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateRoleRevokesSessions(t *testing.T) {
	svc, _, pharmacy, revoker := newTestService(t)
	ctx := context.Background()
	admin := uuid.New()
	created, err := svc.Create(ctx, pharmacy.ID, validInput())
	require.NoError(t, err)

	name := "María L."
	updated, err := svc.Update(ctx, pharmacy.ID, admin, created.ID, UpdateUserInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
	assert.Empty(t, revoker.revoked)

	role := enums.UserRolePharmacist
	updated, err = svc.Update(ctx, pharmacy.ID, admin, created.ID, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRolePharmacist, updated.Role)
	assert.Equal(t, []string{created.ID.String()}, revoker.revoked)
}

func TestDeactivateRules(t *testing.T) {
	svc, client, pharmacy, revoker := newTestService(t)
	ctx := context.Background()
	admin := dbtest.MustUser(t, client, pharmacy.ID, enums.UserRoleAdmin)
	created, err := svc.Create(ctx, pharmacy.ID, validInput())
	require.NoError(t, err)

	err = svc.Deactivate(ctx, pharmacy.ID, admin.ID, admin.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	inactive := false
	_, err = svc.Update(ctx, pharmacy.ID, admin.ID, admin.ID, UpdateUserInput{IsActive: &inactive})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.Deactivate(ctx, pharmacy.ID, admin.ID, created.ID))
	assert.Equal(t, []string{created.ID.String()}, revoker.revoked)

	list, err := svc.List(ctx, pharmacy.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, u := range list {
		if u.ID == created.ID {
			assert.False(t, u.IsActive)
		}
	}

	other := dbtest.MustPharmacy(t, client)
	err = svc.Deactivate(ctx, other.ID, admin.ID, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
