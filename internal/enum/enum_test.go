package enum

import "testing"

func TestIsValidPaymentMethod(t *testing.T) {
	for _, m := range PaymentMethods {
		if !IsValidPaymentMethod(m) {
			t.Errorf("%q should be valid", m)
		}
	}
	for _, m := range []string{"", "CASH", "bitcoin", "credit"} {
		if IsValidPaymentMethod(m) {
			t.Errorf("%q should be invalid", m)
		}
	}
}
