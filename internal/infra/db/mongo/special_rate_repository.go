package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/specialrates"
)

type SpecialRateRepository struct {
	col *mongo.Collection
}

func NewSpecialRateRepository(db *mongo.Database) *SpecialRateRepository {
	col := db.Collection("agg_special_rate")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "date_from", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &SpecialRateRepository{col: col}
}

func (r *SpecialRateRepository) ByID(ctx context.Context, id specialrates.ID) (*specialrates.SpecialRate, error) {
	var doc specialRateDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", specialrates.ErrNotFound, id)
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *SpecialRateRepository) ByProperty(ctx context.Context, propertyID inventory.PropertyID) ([]*specialrates.SpecialRate, error) {
	cur, err := r.col.Find(ctx, bson.M{"property_id": propertyID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*specialrates.SpecialRate
	for cur.Next(ctx) {
		var doc specialRateDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rate, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, cur.Err()
}

func (r *SpecialRateRepository) Save(ctx context.Context, rate *specialrates.SpecialRate) error {
	doc := newSpecialRateDocument(rate)
	filter := bson.M{"_id": doc.ID, "version": rate.Version}
	doc.Version = rate.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err := versionedUpsert(res, err); err != nil {
		return err
	}
	rate.Version = doc.Version
	return nil
}

func (r *SpecialRateRepository) Delete(ctx context.Context, id specialrates.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", specialrates.ErrNotFound, id)
	}
	return nil
}

type adjustmentDocument struct {
	Mode       string         `bson:"mode"`
	FlatPrice  *moneyDocument `bson:"flat_price,omitempty"`
	PercentAdj *float64       `bson:"percent_adj,omitempty"`
}

type roomTypeLinkDocument struct {
	RoomTypeID string              `bson:"room_type_id"`
	Override   *adjustmentDocument `bson:"override,omitempty"`
}

type specialRateDocument struct {
	ID             string                 `bson:"_id"`
	PropertyID     string                 `bson:"property_id"`
	Name           string                 `bson:"name"`
	Kind           string                 `bson:"kind"`
	Adjustment     adjustmentDocument     `bson:"adjustment"`
	DateFrom       string                 `bson:"date_from"`
	DateTo         string                 `bson:"date_to"`
	Links          []roomTypeLinkDocument `bson:"links"`
	Priority       int                    `bson:"priority"`
	ConflictPolicy string                 `bson:"conflict_policy"`
	Active         bool                   `bson:"active"`
	UsageCount     int                    `bson:"usage_count"`
	Metadata       map[string]string      `bson:"metadata,omitempty"`
	CreatedAt      int64                  `bson:"created_at"`
	UpdatedAt      int64                  `bson:"updated_at"`
	Version        int64                  `bson:"version"`
}

func newAdjustmentDocument(a specialrates.Adjustment) adjustmentDocument {
	return adjustmentDocument{Mode: string(a.Mode), FlatPrice: moneyPtrDocument(a.FlatPrice), PercentAdj: a.PercentAdj}
}

func (d adjustmentDocument) toAdjustment() specialrates.Adjustment {
	return specialrates.Adjustment{Mode: specialrates.Mode(d.Mode), FlatPrice: d.FlatPrice.toMoneyPtr(), PercentAdj: d.PercentAdj}
}

func newSpecialRateDocument(r *specialrates.SpecialRate) specialRateDocument {
	doc := specialRateDocument{
		ID:             string(r.ID),
		PropertyID:     string(r.PropertyID),
		Name:           r.Name,
		Kind:           string(r.Kind),
		Adjustment:     newAdjustmentDocument(r.Adjustment),
		DateFrom:       r.Span.From.String(),
		DateTo:         r.Span.To.String(),
		Links:          make([]roomTypeLinkDocument, 0, len(r.Links)),
		Priority:       r.Priority,
		ConflictPolicy: string(r.ConflictPolicy),
		Active:         r.Active,
		UsageCount:     r.UsageCount,
		CreatedAt:      r.CreatedAt.UnixMilli(),
		UpdatedAt:      r.UpdatedAt.UnixMilli(),
		Version:        r.Version,
	}
	for _, l := range r.Links {
		link := roomTypeLinkDocument{RoomTypeID: string(l.RoomTypeID)}
		if l.Override != nil {
			o := newAdjustmentDocument(*l.Override)
			link.Override = &o
		}
		doc.Links = append(doc.Links, link)
	}
	if len(r.Metadata) > 0 {
		doc.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			doc.Metadata[k] = string(v)
		}
	}
	return doc
}

// toAggregate rebuilds a stored rate without re-running validation, so rules
// that became malformed still load and are screened out by the resolver.
func (d specialRateDocument) toAggregate() (*specialrates.SpecialRate, error) {
	from, err := parseDay(d.DateFrom)
	if err != nil {
		return nil, fmt.Errorf("special rate %s: %w", d.ID, err)
	}
	to, err := parseDay(d.DateTo)
	if err != nil {
		return nil, fmt.Errorf("special rate %s: %w", d.ID, err)
	}
	rate := &specialrates.SpecialRate{
		ID:             specialrates.ID(d.ID),
		PropertyID:     inventory.PropertyID(d.PropertyID),
		Name:           d.Name,
		Kind:           specialrates.Kind(d.Kind),
		Adjustment:     d.Adjustment.toAdjustment(),
		Span:           daterange.Span{From: from, To: to},
		Priority:       d.Priority,
		ConflictPolicy: specialrates.ConflictPolicy(d.ConflictPolicy),
		Active:         d.Active,
		UsageCount:     d.UsageCount,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
	for _, l := range d.Links {
		link := specialrates.RoomTypeLink{RoomTypeID: inventory.RoomTypeID(l.RoomTypeID)}
		if l.Override != nil {
			o := l.Override.toAdjustment()
			link.Override = &o
		}
		rate.Links = append(rate.Links, link)
	}
	if len(d.Metadata) > 0 {
		rate.Metadata = make(map[string]json.RawMessage, len(d.Metadata))
		for k, v := range d.Metadata {
			rate.Metadata[k] = json.RawMessage(v)
		}
	}
	return rate, nil
}

var _ specialrates.Repository = (*SpecialRateRepository)(nil)
