package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// EventChannel is the pub/sub channel carrying one table's events.
func EventChannel(tableID string) string {
	return fmt.Sprintf("connect4:table:%s:events", tableID)
}

// EventPublisher fans table events out over Redis pub/sub so other
// processes can follow a table.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.client.Publish(ctx, EventChannel(event.TableID), payload).Err(); err != nil {
		return errors.Wrapf(err, "publish %s for table %s", event.Type, event.TableID)
	}
	return nil
}

// Subscribe follows one table's events until ctx is done. The returned channel
// is closed when the subscription ends.
func (p *EventPublisher) Subscribe(ctx context.Context, tableID string) (<-chan domain.Event, error) {
	sub := p.client.Subscribe(ctx, EventChannel(tableID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, errors.Wrapf(err, "subscribe to table %s", tableID)
	}

	out := make(chan domain.Event)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
