package enums

import "slices"

// AuditAction names the mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionStock  AuditAction = "STOCK_ADJUST"
)

var auditActions = []AuditAction{AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionStock}

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool { return slices.Contains(auditActions, a) }
