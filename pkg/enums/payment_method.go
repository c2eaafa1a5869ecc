package enums

import "slices"

// PaymentMethod captures how a sale was paid at the counter.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "EFECTIVO"
	PaymentMethodCard     PaymentMethod = "TARJETA"
	PaymentMethodTransfer PaymentMethod = "TRANSFERENCIA"
	PaymentMethodMixed    PaymentMethod = "MIXTO"
)

var paymentMethods = []PaymentMethod{PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodMixed}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool { return slices.Contains(paymentMethods, p) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse("payment method", value, paymentMethods)
}
