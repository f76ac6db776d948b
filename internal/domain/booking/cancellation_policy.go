package booking

import (
	"time"

	"staybook/internal/domain/shared/money"
)

// CancellationPolicySnapshot is copied onto the booking at request time so later
// policy edits never change what a guest agreed to.
type CancellationPolicySnapshot struct {
	PolicyID                  string
	FreeCancellationUntil     time.Time
	PreCheckInPenaltyPercent  int
	PostCheckInPenaltyPercent int
}

// DefaultCancellationPolicy allows free cancellation until freeDays before check-in
// and charges the given percentage afterwards.
func DefaultCancellationPolicy(checkIn time.Time, freeDays, penaltyPercent int) CancellationPolicySnapshot {
	return CancellationPolicySnapshot{
		PolicyID:                  "standard",
		FreeCancellationUntil:     checkIn.AddDate(0, 0, -freeDays),
		PreCheckInPenaltyPercent:  penaltyPercent,
		PostCheckInPenaltyPercent: 100,
	}
}

func (c CancellationPolicySnapshot) CalculateRefund(total money.Money, cancelAt, checkIn time.Time) (money.Money, money.Money, error) {
	if cancelAt.IsZero() {
		cancelAt = time.Now().UTC()
	}
	var percent int
	switch {
	case c.PolicyID == "":
	case !cancelAt.Before(checkIn):
		percent = clampPercent(c.PostCheckInPenaltyPercent)
	case !c.FreeCancellationUntil.IsZero() && cancelAt.Before(c.FreeCancellationUntil):
	default:
		percent = clampPercent(c.PreCheckInPenaltyPercent)
	}
	penalty := money.Money{Amount: total.Amount * int64(percent) / 100, Currency: total.Currency}
	refund := money.Money{Amount: total.Amount - penalty.Amount, Currency: total.Currency}
	return refund, penalty, nil
}

func clampPercent(p int) int {
	return min(max(p, 0), 100)
}
