package enums

import "slices"

// MovementKind classifies an inventory movement. The kind carries the sign of
// the stock change; movement quantities are always positive.
type MovementKind string

const (
	MovementKindInbound        MovementKind = "ENTRADA"
	MovementKindOutbound       MovementKind = "SALIDA"
	MovementKindAdjustPositive MovementKind = "AJUSTE_POSITIVO"
	MovementKindAdjustNegative MovementKind = "AJUSTE_NEGATIVO"
	MovementKindExpiry         MovementKind = "VENCIMIENTO"
	MovementKindReturn         MovementKind = "DEVOLUCION"
)

var movementKinds = []MovementKind{
	MovementKindInbound,
	MovementKindOutbound,
	MovementKindAdjustPositive,
	MovementKindAdjustNegative,
	MovementKindExpiry,
	MovementKindReturn,
}

func (k MovementKind) String() string { return string(k) }

func (k MovementKind) IsValid() bool { return slices.Contains(movementKinds, k) }

// Sign returns +1 for kinds that add stock and -1 for kinds that remove it.
func (k MovementKind) Sign() int {
	switch k {
	case MovementKindInbound, MovementKindAdjustPositive, MovementKindReturn:
		return 1
	case MovementKindOutbound, MovementKindAdjustNegative, MovementKindExpiry:
		return -1
	default:
		return 0
	}
}

func ParseMovementKind(value string) (MovementKind, error) {
	return parse("movement kind", value, movementKinds)
}
