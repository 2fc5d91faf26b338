package cart

import "fmt"

type Verdict int

const (
	Allow Verdict = iota
	LimitReached
	Unverifiable
)

// Decision is what the increment control shows the user when a request is
// blocked. The check is advisory and uses the add-time stock figure; the
// backend re-verifies at order creation.
type Decision struct {
	Verdict Verdict
	Message string
}

// CanIncrement decides whether a quantity increase may be dispatched.
func CanIncrement(currentQuantity, stockLimitAtAdd int) Decision {
	if stockLimitAtAdd < 0 {
		return Decision{Verdict: Unverifiable, Message: "cannot verify availability for this item"}
	}
	if currentQuantity >= stockLimitAtAdd {
		return Decision{
			Verdict: LimitReached,
			Message: fmt.Sprintf("stock limit reached: only %d key(s) available", stockLimitAtAdd),
		}
	}
	return Decision{Verdict: Allow}
}
