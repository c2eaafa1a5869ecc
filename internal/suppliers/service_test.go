package suppliers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

func newService(t *testing.T) (Service, *models.Pharmacy) {
	t.Helper()
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	return svc, pharmacy
}

func TestCreateGetUpdate(t *testing.T) {
	svc, pharmacy := newService(t)
	ctx := context.Background()

	contact := "Marta"
	created, err := svc.Create(ctx, pharmacy.ID, CreateSupplierInput{Name: " Droguería Central ", ContactName: &contact})
	require.NoError(t, err)
	assert.Equal(t, "Droguería Central", created.Name)
	assert.True(t, created.IsActive)

	got, err := svc.Get(ctx, pharmacy.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	phone := "2222-0000"
	inactive := false
	updated, err := svc.Update(ctx, pharmacy.ID, created.ID, UpdateSupplierInput{Phone: &phone, IsActive: &inactive})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.ContactName)
	assert.Equal(t, "Marta", *updated.ContactName)

	active, err := svc.List(ctx, pharmacy.ID, false, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, pharmacy.ID, true, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateRequiresName(t *testing.T) {
	svc, pharmacy := newService(t)
	_, err := svc.Create(context.Background(), pharmacy.ID, CreateSupplierInput{Name: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetOtherPharmacyNotFound(t *testing.T) {
	svc, pharmacy := newService(t)
	created, err := svc.Create(context.Background(), pharmacy.ID, CreateSupplierInput{Name: "Laboratorios Uno"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeliveriesListsInboundMovements(t *testing.T) {
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	supplier, err := svc.Create(ctx, pharmacy.ID, CreateSupplierInput{Name: "Distribuidora Norte"})
	require.NoError(t, err)
	med := dbtest.MustMedication(t, client, pharmacy.ID, "Enalapril", dbtest.WithSupplier(supplier.ID))
	unrelated := dbtest.MustMedication(t, client, pharmacy.ID, "Ajeno")

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for _, mv := range []models.InventoryMovement{
		{PharmacyID: pharmacy.ID, MedicationID: med.ID, Kind: enums.MovementKindInbound, Quantity: 20, MovedAt: base},
		{PharmacyID: pharmacy.ID, MedicationID: med.ID, Kind: enums.MovementKindInbound, Quantity: 30, MovedAt: base.Add(time.Hour)},
		{PharmacyID: pharmacy.ID, MedicationID: med.ID, Kind: enums.MovementKindOutbound, Quantity: 2, MovedAt: base.Add(2 * time.Hour)},
		{PharmacyID: pharmacy.ID, MedicationID: unrelated.ID, Kind: enums.MovementKindInbound, Quantity: 5, MovedAt: base},
	} {
		mv := mv
		require.NoError(t, client.DB().Create(&mv).Error)
	}

	deliveries, err := svc.Deliveries(ctx, pharmacy.ID, supplier.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, 30, deliveries[0].Quantity)
	assert.Equal(t, "Enalapril", deliveries[0].MedicationName)
	assert.Equal(t, 20, deliveries[1].Quantity)

	_, err = svc.Deliveries(ctx, pharmacy.ID, uuid.New(), pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
