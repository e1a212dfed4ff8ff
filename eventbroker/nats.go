package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"relationships/model"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName     = "RELATIONSHIPS"
	SubjectPattern = "relationships.>"

	SubjectCreated = "relationships.created"
	SubjectRemoved = "relationships.removed"
)

// RelationshipEvent 事件负载
type RelationshipEvent struct {
	ID       string    `json:"id"`
	From     uint      `json:"from"`
	To       uint      `json:"to"`
	StatusID uint      `json:"status"`
	TenantID uint      `json:"tenant"`
	At       time.Time `json:"at"`
}

// NewRelationshipEvent 由关系构造事件
func NewRelationshipEvent(rel *model.Relationship, at time.Time) RelationshipEvent {
	return RelationshipEvent{
		ID:       rel.ID.String(),
		From:     rel.FromIdentityID,
		To:       rel.ToIdentityID,
		StatusID: rel.StatusID,
		TenantID: rel.TenantID,
		At:       at.UTC(),
	}
}

type NatsBroker struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNatsBroker 连接 NATS 并确保 Stream 存在（幂等）
func NewNatsBroker(url string) (*NatsBroker, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{nc: nc, js: js}, nil
}

func (n *NatsBroker) PublishCreated(ctx context.Context, rel *model.Relationship) error {
	return n.publish(ctx, SubjectCreated, NewRelationshipEvent(rel, rel.CreatedAt))
}

func (n *NatsBroker) PublishRemoved(ctx context.Context, rel *model.Relationship) error {
	return n.publish(ctx, SubjectRemoved, NewRelationshipEvent(rel, time.Now()))
}

func (n *NatsBroker) publish(ctx context.Context, subject string, event RelationshipEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (n *NatsBroker) Close() {
	if n.nc != nil {
		n.nc.Close()
	}
}
