package booking

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
)

const quoteStayKey = "booking.quote_stay"

type QuoteStayQuery struct {
	Stay StayRequest
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

func (q QuoteStayQuery) Validate() error { return q.Stay.validate() }

type QuoteStayHandler struct {
	UoWFactory uow.UoWFactory
	Quoter     Quoter
	Metrics    policies.PricingMetrics
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.StayQuote, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.StayQuote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	quote, err := h.Quoter.Quote(ctx, unit, q.Stay)
	if err != nil {
		return dto.StayQuote{}, err
	}
	observeQuote(h.Metrics, quote)
	return quote.DTO(), nil
}

func observeQuote(m policies.PricingMetrics, quote StayQuote) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !quote.Quote.OK {
		outcome = "rejected"
	}
	m.QuoteEvaluated(outcome)
}

var _ queries.Handler[QuoteStayQuery, dto.StayQuote] = (*QuoteStayHandler)(nil)
