package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_sales_pharmacy_invoice"}
	wrapped := fmt.Errorf("insert sale: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, "uq_sales_pharmacy_invoice"))
	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.False(t, IsUniqueViolation(wrapped, "uq_medications_pharmacy_barcode"))

	pqErr := &pq.Error{Code: "23505", Constraint: "uq_users_username"}
	assert.True(t, IsUniqueViolation(pqErr, "uq_users_username"))

	sqliteErr := errors.New("UNIQUE constraint failed: sales.pharmacy_id, sales.invoice_number")
	assert.True(t, IsUniqueViolation(sqliteErr, "uq_sales_pharmacy_invoice", "sales.invoice_number"))
	assert.False(t, IsUniqueViolation(sqliteErr, "uq_medications_pharmacy_barcode", "medications.barcode"))

	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "chk_medications_stock_nonnegative"}
	assert.True(t, IsCheckViolation(pgErr, "chk_medications_stock_nonnegative"))
	assert.False(t, IsCheckViolation(pgErr, "chk_other"))

	sqliteErr := errors.New("CHECK constraint failed: chk_medications_stock_nonnegative")
	assert.True(t, IsCheckViolation(sqliteErr, "chk_medications_stock_nonnegative"))
	assert.False(t, IsCheckViolation(errors.New("boom"), ""))
}
