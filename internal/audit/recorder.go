package audit

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type metaKey struct{}

// Meta identifies who performed a mutation and from where.
type Meta struct {
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
}

// WithMeta stores request metadata for audit entries recorded downstream.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the request metadata, if any.
func MetaFromContext(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	meta, _ := ctx.Value(metaKey{}).(Meta)
	return meta
}

// Entry describes a mutation to append to the audit log. Previous and Current
// are JSON encoded snapshots; either may be nil.
type Entry struct {
	PharmacyID uuid.UUID
	Entity     string
	Action     enums.AuditAction
	RecordID   string
	Previous   any
	Current    any
}

// Recorder appends audit entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

type recorder struct{}

// NewRecorder builds the gorm backed audit recorder.
func NewRecorder() Recorder {
	return recorder{}
}

func (recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "audit requires a transaction")
	}
	if entry.PharmacyID == uuid.Nil || strings.TrimSpace(entry.Entity) == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "audit entry missing pharmacy or entity")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, "audit entry has invalid action")
	}

	previous, err := encode(entry.Previous)
	if err != nil {
		return err
	}
	current, err := encode(entry.Current)
	if err != nil {
		return err
	}

	meta := MetaFromContext(ctx)
	row := &models.AuditEntry{
		PharmacyID:   entry.PharmacyID,
		UserID:       meta.UserID,
		Entity:       entry.Entity,
		Action:       entry.Action,
		RecordID:     optional(entry.RecordID),
		PreviousData: previous,
		NewData:      current,
		IPAddress:    optional(meta.IPAddress),
		UserAgent:    optional(meta.UserAgent),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert audit entry")
	}
	return nil
}

func encode(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit snapshot")
	}
	return raw, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
