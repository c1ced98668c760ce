package port

import (
	"context"

	"multicap-dx/internal/domain/entity"
)

// EventPublisher рассылает события о съёмке и анализе
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}
