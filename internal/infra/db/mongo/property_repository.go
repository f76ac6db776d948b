package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/inventory"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) Property(ctx context.Context, id inventory.PropertyID) (*inventory.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", inventory.ErrPropertyNotFound, id)
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *PropertyRepository) Save(ctx context.Context, p *inventory.Property) error {
	doc := newPropertyDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err := versionedUpsert(res, err); err != nil {
		return err
	}
	p.Version = doc.Version
	return nil
}

type propertyDocument struct {
	ID        string             `bson:"_id"`
	Name      string             `bson:"name"`
	Currency  string             `bson:"currency"`
	RoomTypes []roomTypeDocument `bson:"room_types"`
	UpdatedAt int64              `bson:"updated_at"`
	Version   int64              `bson:"version"`
}

type roomTypeDocument struct {
	ID                   string                      `bson:"id"`
	Name                 string                      `bson:"name"`
	BasePrice            moneyDocument               `bson:"base_price"`
	SingleOccupancyPrice moneyDocument               `bson:"single_occupancy_price"`
	Occupancy            int                         `bson:"occupancy"`
	ExtraBedCapacity     int                         `bson:"extra_bed_capacity"`
	ExtraBedAdult        moneyDocument               `bson:"extra_bed_adult"`
	ExtraBedChild        moneyDocument               `bson:"extra_bed_child"`
	ExtraBedInfant       moneyDocument               `bson:"extra_bed_infant"`
	IncludedMealPlan     string                      `bson:"included_meal_plan,omitempty"`
	MealPlans            map[string]mealPlanDocument `bson:"meal_plans,omitempty"`
	Rooms                []roomDocument              `bson:"rooms"`
	Rates                []dateRateDocument          `bson:"rates"`
}

type mealPlanDocument struct {
	Name  string        `bson:"name"`
	Mode  string        `bson:"mode"`
	Adult moneyDocument `bson:"adult"`
	Child moneyDocument `bson:"child"`
}

type roomDocument struct {
	ID           string               `bson:"id"`
	Number       string               `bson:"number"`
	Availability []roomStatusDocument `bson:"availability,omitempty"`
}

type roomStatusDocument struct {
	Date   string `bson:"date"`
	Status string `bson:"status"`
}

type dateRateDocument struct {
	ID     string        `bson:"id"`
	Date   string        `bson:"date"`
	Price  moneyDocument `bson:"price"`
	IsOpen bool          `bson:"is_open"`
}

func newPropertyDocument(p *inventory.Property) propertyDocument {
	doc := propertyDocument{
		ID:        string(p.ID),
		Name:      p.Name,
		Currency:  p.Currency,
		RoomTypes: make([]roomTypeDocument, 0, len(p.RoomTypes)),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
		Version:   p.Version,
	}
	for _, rt := range p.RoomTypes {
		rtd := roomTypeDocument{
			ID:                   string(rt.ID),
			Name:                 rt.Name,
			BasePrice:            newMoneyDocument(rt.BasePrice),
			SingleOccupancyPrice: newMoneyDocument(rt.SingleOccupancyPrice),
			Occupancy:            rt.Occupancy,
			ExtraBedCapacity:     rt.ExtraBedCapacity,
			ExtraBedAdult:        newMoneyDocument(rt.ExtraBedPrices.Adult),
			ExtraBedChild:        newMoneyDocument(rt.ExtraBedPrices.Child),
			ExtraBedInfant:       newMoneyDocument(rt.ExtraBedPrices.Infant),
			IncludedMealPlan:     rt.MealPlans.Included,
			Rooms:                make([]roomDocument, 0, len(rt.Rooms)),
			Rates:                make([]dateRateDocument, 0, len(rt.Rates)),
		}
		if len(rt.MealPlans.Plans) > 0 {
			rtd.MealPlans = make(map[string]mealPlanDocument, len(rt.MealPlans.Plans))
			for id, plan := range rt.MealPlans.Plans {
				rtd.MealPlans[id] = mealPlanDocument{
					Name:  plan.Name,
					Mode:  string(plan.Mode),
					Adult: newMoneyDocument(plan.Adult),
					Child: newMoneyDocument(plan.Child),
				}
			}
		}
		for _, room := range rt.Rooms {
			rd := roomDocument{ID: string(room.ID), Number: room.Number}
			for _, a := range room.Availability {
				rd.Availability = append(rd.Availability, roomStatusDocument{Date: a.Date.String(), Status: string(a.Status)})
			}
			rtd.Rooms = append(rtd.Rooms, rd)
		}
		for _, rate := range rt.Rates {
			rtd.Rates = append(rtd.Rates, dateRateDocument{
				ID:     rate.ID,
				Date:   rate.Date.String(),
				Price:  newMoneyDocument(rate.Price),
				IsOpen: rate.IsOpen,
			})
		}
		doc.RoomTypes = append(doc.RoomTypes, rtd)
	}
	return doc
}

func (d propertyDocument) toAggregate() (*inventory.Property, error) {
	p := &inventory.Property{
		ID:        inventory.PropertyID(d.ID),
		Name:      d.Name,
		Currency:  d.Currency,
		RoomTypes: make([]inventory.RoomType, 0, len(d.RoomTypes)),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	for _, rtd := range d.RoomTypes {
		rt := inventory.RoomType{
			ID:                   inventory.RoomTypeID(rtd.ID),
			Name:                 rtd.Name,
			BasePrice:            rtd.BasePrice.toMoney(),
			SingleOccupancyPrice: rtd.SingleOccupancyPrice.toMoney(),
			Occupancy:            rtd.Occupancy,
			ExtraBedCapacity:     rtd.ExtraBedCapacity,
			ExtraBedPrices: inventory.ExtraBedPrices{
				Adult:  rtd.ExtraBedAdult.toMoney(),
				Child:  rtd.ExtraBedChild.toMoney(),
				Infant: rtd.ExtraBedInfant.toMoney(),
			},
			MealPlans: inventory.MealPlanPricing{Included: rtd.IncludedMealPlan},
		}
		if len(rtd.MealPlans) > 0 {
			rt.MealPlans.Plans = make(map[string]inventory.MealPlanPrice, len(rtd.MealPlans))
			for id, plan := range rtd.MealPlans {
				rt.MealPlans.Plans[id] = inventory.MealPlanPrice{
					PlanID: id,
					Name:   plan.Name,
					Mode:   inventory.MealPlanMode(plan.Mode),
					Adult:  plan.Adult.toMoney(),
					Child:  plan.Child.toMoney(),
				}
			}
		}
		for _, rd := range rtd.Rooms {
			room := inventory.Room{ID: inventory.RoomID(rd.ID), Number: rd.Number}
			for _, a := range rd.Availability {
				day, err := parseDay(a.Date)
				if err != nil {
					return nil, fmt.Errorf("property %s room %s: %w", d.ID, rd.ID, err)
				}
				room.Availability = append(room.Availability, inventory.RoomDayStatus{Date: day, Status: inventory.RoomStatus(a.Status)})
			}
			rt.Rooms = append(rt.Rooms, room)
		}
		for _, rd := range rtd.Rates {
			day, err := parseDay(rd.Date)
			if err != nil {
				return nil, fmt.Errorf("property %s rate %s: %w", d.ID, rd.ID, err)
			}
			rt.Rates = append(rt.Rates, inventory.DateRate{ID: rd.ID, Date: day, Price: rd.Price.toMoney(), IsOpen: rd.IsOpen})
		}
		p.RoomTypes = append(p.RoomTypes, rt)
	}
	return p, nil
}

var _ inventory.Repository = (*PropertyRepository)(nil)
