package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

func TestRecordCarriesRequestMeta(t *testing.T) {
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	userID := uuid.New()

	ctx := WithMeta(context.Background(), Meta{UserID: &userID, IPAddress: "10.0.0.8", UserAgent: "pos-terminal/1.0"})
	rec := NewRecorder()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return rec.Record(ctx, tx, Entry{
			PharmacyID: pharmacy.ID,
			Entity:     "medications",
			Action:     enums.AuditActionUpdate,
			RecordID:   "abc",
			Previous:   map[string]any{"sale_price": "2.50"},
			Current:    map[string]any{"sale_price": "3.00"},
		})
	})
	require.NoError(t, err)

	var entry models.AuditEntry
	require.NoError(t, client.DB().First(&entry).Error)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.8", *entry.IPAddress)
	assert.Equal(t, enums.AuditActionUpdate, entry.Action)

	var current map[string]string
	require.NoError(t, json.Unmarshal(entry.NewData, &current))
	assert.Equal(t, "3.00", current["sale_price"])
}

func TestRecordRejectsIncompleteEntries(t *testing.T) {
	client := dbtest.New(t)
	rec := NewRecorder()
	ctx := context.Background()

	assert.Error(t, rec.Record(ctx, client.DB(), Entry{Entity: "users", Action: enums.AuditActionCreate}))
	assert.Error(t, rec.Record(ctx, client.DB(), Entry{PharmacyID: uuid.New(), Entity: "users", Action: "PURGE"}))
	assert.Error(t, rec.Record(ctx, nil, Entry{PharmacyID: uuid.New(), Entity: "users", Action: enums.AuditActionCreate}))
}

func TestMetaFromEmptyContext(t *testing.T) {
	assert.Equal(t, Meta{}, MetaFromContext(context.Background()))
}
