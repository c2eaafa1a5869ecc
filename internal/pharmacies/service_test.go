package pharmacies

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

func TestGetMergesDefaults(t *testing.T) {
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	require.NoError(t, client.DB().Model(&models.Pharmacy{}).
		Where("id = ?", pharmacy.ID).
		Update("settings", []byte(`{"parametros":{"dias_alerta_vencimiento":30}}`)).Error)

	svc, err := NewService(client, NewRepository(client.DB()), audit.NewRecorder(), "")
	require.NoError(t, err)

	settings, err := svc.Get(context.Background(), pharmacy.ID)
	require.NoError(t, err)
	assert.Equal(t, pharmacy.Name, settings.General.PharmacyName)
	assert.Equal(t, 30, settings.Parameters.ExpiryAlertDays)
	assert.Equal(t, 10, settings.Parameters.DefaultMinimumStock)
	assert.Equal(t, DefaultTimeZone, settings.General.TimeZone)
	assert.Equal(t, "USD", settings.General.Currency)
}

func TestUpdateWritesProfileAndAudit(t *testing.T) {
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	svc, err := NewService(client, NewRepository(client.DB()), audit.NewRecorder(), "")
	require.NoError(t, err)

	input := DefaultSettings()
	input.General.PharmacyName = "Farmacia San Rafael"
	input.General.TimeZone = "America/Guatemala"
	input.Parameters.ExpiryAlertDays = 45

	updated, err := svc.Update(context.Background(), pharmacy.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Farmacia San Rafael", updated.General.PharmacyName)
	assert.Equal(t, 45, updated.Parameters.ExpiryAlertDays)

	var stored models.Pharmacy
	require.NoError(t, client.DB().First(&stored, "id = ?", pharmacy.ID).Error)
	assert.Equal(t, "Farmacia San Rafael", stored.Name)
	assert.Equal(t, int64(1), dbtest.Count(t, client, &models.AuditEntry{}))

	loc, err := svc.Location(context.Background(), pharmacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "America/Guatemala", loc.String())
}

func TestUpdateValidation(t *testing.T) {
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	svc, err := NewService(client, NewRepository(client.DB()), audit.NewRecorder(), "")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), pharmacy.ID, DefaultSettings())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	input := DefaultSettings()
	input.General.PharmacyName = "X"
	input.General.TimeZone = "Mars/Olympus"
	_, err = svc.Update(context.Background(), pharmacy.ID, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetUnknownPharmacy(t *testing.T) {
	client := dbtest.New(t)
	svc, err := NewService(client, NewRepository(client.DB()), audit.NewRecorder(), "")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSettingsLocationFallback(t *testing.T) {
	settings := DefaultSettings()
	settings.General.TimeZone = "Not/AZone"
	assert.Equal(t, DefaultTimeZone, settings.Location().String())
}
