package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "range.check_in", Value: 1}}})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ListByProperty(ctx context.Context, propertyID inventory.PropertyID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"property_id": propertyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err := versionedUpsert(res, err); err != nil {
		return err
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID             string                                   `bson:"_id"`
	PropertyID     string                                   `bson:"property_id"`
	GuestID        string                                   `bson:"guest_id"`
	Range          rangeDocument                            `bson:"range"`
	Party          domainbooking.Party                      `bson:"party"`
	Rooms          []reservedRoomsDocument                  `bson:"rooms"`
	Totals         totalsDocument                           `bson:"totals"`
	SpecialRateIDs []string                                 `bson:"special_rate_ids"`
	State          string                                   `bson:"state"`
	PaymentHold    string                                   `bson:"payment_hold"`
	Policy         domainbooking.CancellationPolicySnapshot `bson:"policy"`
	CreatedAt      int64                                    `bson:"created_at"`
	UpdatedAt      int64                                    `bson:"updated_at"`
	Version        int64                                    `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type reservedRoomsDocument struct {
	RoomTypeID string   `bson:"room_type_id"`
	RoomIDs    []string `bson:"room_ids"`
	MealPlanID string   `bson:"meal_plan_id,omitempty"`
}

type totalsDocument struct {
	Currency            string              `bson:"currency"`
	PerRoom             []roomTotalDocument `bson:"per_room"`
	GrandTotal          moneyDocument       `bson:"grand_total"`
	MealTotal           moneyDocument       `bson:"meal_total"`
	GrandTotalWithMeals moneyDocument       `bson:"grand_total_with_meals"`
}

type roomTotalDocument struct {
	RoomID          string        `bson:"room_id"`
	RoomTypeID      string        `bson:"room_type_id"`
	Nights          int           `bson:"nights"`
	SingleOccupancy bool          `bson:"single_occupancy"`
	OccupancyPrice  moneyDocument `bson:"occupancy_price"`
	ExtraBedCharge  moneyDocument `bson:"extra_bed_charge"`
	RoomTotal       moneyDocument `bson:"room_total"`
	MealPlanID      string        `bson:"meal_plan_id,omitempty"`
	MealTotal       moneyDocument `bson:"meal_total"`
	TotalWithMeals  moneyDocument `bson:"total_with_meals"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:             string(b.ID),
		PropertyID:     string(b.PropertyID),
		GuestID:        b.GuestID,
		Range:          rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Party:          b.Party,
		Rooms:          make([]reservedRoomsDocument, 0, len(b.Rooms)),
		SpecialRateIDs: append([]string{}, b.SpecialRateIDs...),
		State:          string(b.State),
		PaymentHold:    b.PaymentHold,
		Policy:         b.Policy,
		CreatedAt:      b.CreatedAt.UnixMilli(),
		UpdatedAt:      b.UpdatedAt.UnixMilli(),
		Version:        b.Version,
		Totals: totalsDocument{
			Currency:            b.Totals.Currency,
			PerRoom:             make([]roomTotalDocument, 0, len(b.Totals.PerRoom)),
			GrandTotal:          newMoneyDocument(b.Totals.GrandTotal),
			MealTotal:           newMoneyDocument(b.Totals.MealTotal),
			GrandTotalWithMeals: newMoneyDocument(b.Totals.GrandTotalWithMeals),
		},
	}
	for _, r := range b.Rooms {
		ids := make([]string, 0, len(r.RoomIDs))
		for _, id := range r.RoomIDs {
			ids = append(ids, string(id))
		}
		doc.Rooms = append(doc.Rooms, reservedRoomsDocument{RoomTypeID: string(r.RoomTypeID), RoomIDs: ids, MealPlanID: r.MealPlanID})
	}
	for _, rt := range b.Totals.PerRoom {
		doc.Totals.PerRoom = append(doc.Totals.PerRoom, roomTotalDocument{
			RoomID:          rt.RoomID,
			RoomTypeID:      string(rt.RoomTypeID),
			Nights:          rt.Nights,
			SingleOccupancy: rt.SingleOccupancy,
			OccupancyPrice:  newMoneyDocument(rt.OccupancyPrice),
			ExtraBedCharge:  newMoneyDocument(rt.ExtraBedCharge),
			RoomTotal:       newMoneyDocument(rt.RoomTotal),
			MealPlanID:      rt.MealPlanID,
			MealTotal:       newMoneyDocument(rt.MealTotal),
			TotalWithMeals:  newMoneyDocument(rt.TotalWithMeals),
		})
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:             domainbooking.BookingID(d.ID),
		PropertyID:     inventory.PropertyID(d.PropertyID),
		GuestID:        d.GuestID,
		Range:          daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Party:          d.Party,
		SpecialRateIDs: d.SpecialRateIDs,
		State:          domainbooking.BookingState(d.State),
		PaymentHold:    d.PaymentHold,
		Policy:         d.Policy,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
		Totals: domainbooking.Totals{
			Currency:            d.Totals.Currency,
			GrandTotal:          d.Totals.GrandTotal.toMoney(),
			MealTotal:           d.Totals.MealTotal.toMoney(),
			GrandTotalWithMeals: d.Totals.GrandTotalWithMeals.toMoney(),
		},
	}
	for _, r := range d.Rooms {
		ids := make([]inventory.RoomID, 0, len(r.RoomIDs))
		for _, id := range r.RoomIDs {
			ids = append(ids, inventory.RoomID(id))
		}
		b.Rooms = append(b.Rooms, domainbooking.ReservedRooms{RoomTypeID: inventory.RoomTypeID(r.RoomTypeID), RoomIDs: ids, MealPlanID: r.MealPlanID})
	}
	for _, rt := range d.Totals.PerRoom {
		b.Totals.PerRoom = append(b.Totals.PerRoom, domainbooking.RoomTotal{
			RoomID:          rt.RoomID,
			RoomTypeID:      inventory.RoomTypeID(rt.RoomTypeID),
			Nights:          rt.Nights,
			SingleOccupancy: rt.SingleOccupancy,
			OccupancyPrice:  rt.OccupancyPrice.toMoney(),
			ExtraBedCharge:  rt.ExtraBedCharge.toMoney(),
			RoomTotal:       rt.RoomTotal.toMoney(),
			MealPlanID:      rt.MealPlanID,
			MealTotal:       rt.MealTotal.toMoney(),
			TotalWithMeals:  rt.TotalWithMeals.toMoney(),
		})
	}
	return b
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
