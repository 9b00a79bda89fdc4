package enums

import "fmt"

// CheckoutStep tracks where a checkout session sits in its state machine.
type CheckoutStep string

const (
	CheckoutStepAddressEntry     CheckoutStep = "address_entry"
	CheckoutStepPaymentSelection CheckoutStep = "payment_selection"
	CheckoutStepSubmitting       CheckoutStep = "submitting"
	CheckoutStepCompleted        CheckoutStep = "completed"
	CheckoutStepRedirecting      CheckoutStep = "redirecting"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepAddressEntry,
	CheckoutStepPaymentSelection,
	CheckoutStepSubmitting,
	CheckoutStepCompleted,
	CheckoutStepRedirecting,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the step ends the session.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepCompleted || s == CheckoutStepRedirecting
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
