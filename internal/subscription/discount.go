// Package subscription resolves rider subscription discounts.
package subscription

import "math"

// Validation is the subscription service's answer for a rider. The discount
// percentage only carries meaning when IsValid is true.
type Validation struct {
	IsValid            bool     `json:"is_valid"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	SubscriptionID     string   `json:"subscription_id,omitempty"`
	PlanName           string   `json:"plan_name,omitempty"`
}

// Discount is the result of applying a validation to a fare.
type Discount struct {
	FinalFare      float64 `json:"final_fare"`
	DiscountAmount float64 `json:"discount_amount"`
}

// ApplyDiscount returns the discounted fare. An invalid subscription or a
// missing percentage leaves the fare untouched. The discount never turns
// the fare negative and never exceeds the original fare.
func ApplyDiscount(fare float64, v Validation) Discount {
	if !v.IsValid || v.DiscountPercentage == nil {
		return Discount{FinalFare: fare}
	}

	pct := *v.DiscountPercentage
	if pct <= 0 {
		return Discount{FinalFare: fare}
	}
	if pct > 100 {
		pct = 100
	}

	amount := roundMoney(fare * pct / 100)
	if amount > fare {
		amount = fare
	}

	final := roundMoney(fare - amount)
	if final < 0 {
		final = 0
	}

	return Discount{FinalFare: final, DiscountAmount: amount}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
