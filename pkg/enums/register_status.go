package enums

import "slices"

// RegisterStatus tracks the lifecycle of a cash register session.
type RegisterStatus string

const (
	RegisterStatusOpen          RegisterStatus = "ABIERTA"
	RegisterStatusClosed        RegisterStatus = "CERRADA"
	RegisterStatusPendingReview RegisterStatus = "PENDIENTE_REVISION"
)

var registerStatuses = []RegisterStatus{RegisterStatusOpen, RegisterStatusClosed, RegisterStatusPendingReview}

func (s RegisterStatus) String() string { return string(s) }

func (s RegisterStatus) IsValid() bool { return slices.Contains(registerStatuses, s) }

func ParseRegisterStatus(value string) (RegisterStatus, error) {
	return parse("register status", value, registerStatuses)
}
