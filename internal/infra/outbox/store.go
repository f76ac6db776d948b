package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "staybook/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
	stateDead    = "DEAD"
)

// Store persists outbox records in Mongo. Add joins the caller's transaction
// when ctx carries a session, so records commit together with the aggregates.
type Store struct {
	col *mongo.Collection
	// MaxAttempts moves a record to DEAD after that many failed publishes. Zero retries forever.
	MaxAttempts int
	// ClaimTimeout makes records claimed by a crashed worker claimable again.
	ClaimTimeout time.Duration
}

func NewStore(db *mongo.Database) *Store {
	col := db.Collection("app_outbox")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "claimed_at", Value: 1}}},
	})
	return &Store{col: col, MaxAttempts: 10, ClaimTimeout: time.Minute}
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := bson.M{
		"_id":             record.ID,
		"name":            record.Name,
		"payload":         record.Payload,
		"occurred_at":     record.OccurredAt,
		"aggregate":       record.Aggregate,
		"headers":         record.Headers,
		"state":           stateNew,
		"attempts":        0,
		"next_attempt_at": time.Now().UTC(),
		"created_at":      time.Now().UTC(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *Store) Flush(context.Context) error {
	return nil
}

type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by"`
	ClaimedAt   time.Time         `bson:"claimed_at"`
	SentAt      time.Time         `bson:"sent_at"`
	LastError   string            `bson:"last_error"`
}

func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": []string{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-s.claimTimeout())}},
	}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": time.Now().UTC()}})
	return err
}

// MarkFailed schedules another attempt, or parks the record as DEAD once
// attempts reaches MaxAttempts. It reports whether the record is dead.
func (s *Store) MarkFailed(ctx context.Context, doc *EventDocument, next time.Time, errMsg string) (bool, error) {
	state := stateFailed
	dead := s.MaxAttempts > 0 && doc.Attempts+1 >= s.MaxAttempts
	if dead {
		state = stateDead
	}
	update := bson.M{
		"$set": bson.M{
			"state":           state,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, doc.ID, update)
	return dead, err
}

// Backlog counts records waiting to be published.
func (s *Store) Backlog(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"state": bson.M{"$in": []string{stateNew, stateFailed, stateClaimed}}})
}

func (s *Store) claimTimeout() time.Duration {
	if s.ClaimTimeout > 0 {
		return s.ClaimTimeout
	}
	return time.Minute
}
