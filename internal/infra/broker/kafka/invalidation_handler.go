package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"staybook/internal/app/commands"
	availabilityapp "staybook/internal/app/handlers/availability"
)

var ErrMalformedEvent = errors.New("kafka: malformed cloud event")

// Inbox remembers processed event ids per consumer.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type cloudEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PropertyID string `json:"PropertyID"`
	} `json:"data"`
}

// CalendarInvalidator drops cached calendars of the property named by every
// inventory, special rate and booking event, including those written by other
// instances.
type CalendarInvalidator struct {
	Commands commands.Bus
	Inbox    Inbox
	Logger   *slog.Logger
}

func (h *CalendarInvalidator) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger().WarnContext(ctx, "skipping undecodable event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	if evt.ID == "" || evt.Data.PropertyID == "" {
		h.logger().WarnContext(ctx, "skipping event without id or property", "topic", msg.Topic, "type", evt.Type)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
		if seen {
			return nil
		}
	}
	_, err := commands.Dispatch[availabilityapp.InvalidateCalendarCommand, *availabilityapp.InvalidateCalendarResult](ctx, h.Commands,
		availabilityapp.InvalidateCalendarCommand{PropertyID: evt.Data.PropertyID, Reason: evt.Type})
	if err != nil {
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, evt.ID); ferr != nil {
				return errors.Join(err, fmt.Errorf("inbox forget: %w", ferr))
			}
		}
		return err
	}
	h.logger().DebugContext(ctx, "calendar invalidated", "property_id", evt.Data.PropertyID, "event", evt.Type)
	return nil
}

func (h *CalendarInvalidator) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// EventTopics lists the topics whose events change priced calendars.
func EventTopics(prefix string) []string {
	return []string{
		prefix + "inventory.events.v1",
		prefix + "specialrate.events.v1",
		prefix + "booking.events.v1",
	}
}

var _ MessageHandler = (*CalendarInvalidator)(nil)
