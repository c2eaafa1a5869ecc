package models

// All lists every persisted model in dependency order. It feeds gorm
// AutoMigrate for the sqlite runtime and the test harnesses; Postgres schemas
// are owned by the goose migrations.
func All() []any {
	return []any{
		&Pharmacy{},
		&User{},
		&Supplier{},
		&Medication{},
		&Client{},
		&RegisterSession{},
		&InvoiceSequence{},
		&Sale{},
		&SaleItem{},
		&InventoryMovement{},
		&AuditEntry{},
	}
}
