// Package events publishes activity events (new posts, comments, follows) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	kgo "github.com/segmentio/kafka-go"
)

// Event types.
const (
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
	CommentCreated = "comment.created"
	FollowCreated  = "follow.created"
	GroupCreated   = "group.created"
)

// Event is the JSON envelope written to the activity topic.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actor_id"`
	PostID     uint      `json:"post_id,omitempty"`
	AuthorID   uint      `json:"author_id,omitempty"`
	GroupSlug  string    `json:"group_slug,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers activity events. Delivery failures never fail the caller's request.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by actor.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher creates a publisher for a comma separated broker list.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &KafkaPublisher{w: &kgo.Writer{
		Addr:                   kgo.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           kgo.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kgo.Message{
		Key:   []byte(strconv.FormatUint(uint64(evt.ActorID), 10)),
		Value: b,
		Time:  evt.OccurredAt,
	})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Emit publishes evt and only logs failures.
func Emit(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		observability.EventsPublished.WithLabelValues(evt.Type, "error").Inc()
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("type", evt.Type), slog.String("error", err.Error()))
		return
	}
	observability.EventsPublished.WithLabelValues(evt.Type, "ok").Inc()
}
