package service

import (
	"context"

	"relationships/model"
)

// EventPublisher 关系变更事件（事务提交后调用）
type EventPublisher interface {
	PublishCreated(ctx context.Context, rel *model.Relationship) error
	PublishRemoved(ctx context.Context, rel *model.Relationship) error
}
