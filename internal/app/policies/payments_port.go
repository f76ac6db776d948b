package policies

import (
	"context"

	"staybook/internal/domain/shared/money"
)

// PaymentsPort places and releases holds on the guest's payment method.
type PaymentsPort interface {
	PlaceHold(ctx context.Context, bookingID string, amount money.Money) (string, error)
	ReleaseHold(ctx context.Context, holdID string) error
}
