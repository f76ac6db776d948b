package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func moneyPtrDocument(m *money.Money) *moneyDocument {
	if m == nil {
		return nil
	}
	d := newMoneyDocument(*m)
	return &d
}

func (d *moneyDocument) toMoneyPtr() *money.Money {
	if d == nil {
		return nil
	}
	m := d.toMoney()
	return &m
}

func parseDay(raw string) (daterange.Day, error) {
	if raw == "" {
		return daterange.Day{}, nil
	}
	return daterange.ParseDay(raw)
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// versionedUpsert maps the outcome of a version-filtered upsert to ErrConcurrentUpdate.
func versionedUpsert(res *mongo.UpdateResult, err error) error {
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}
