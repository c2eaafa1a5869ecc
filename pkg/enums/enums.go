package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](label, value string, valid []T) (T, error) {
	if slices.Contains(valid, T(value)) {
		return T(value), nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", label, value)
}
