package messaging

import (
	"context"
	"errors"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// Fanout рассылает событие всем публикаторам, ошибки собираются вместе.
type Fanout []port.EventPublisher

// NewFanout пропускает nil-публикаторы
func NewFanout(publishers ...port.EventPublisher) Fanout {
	out := make(Fanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f Fanout) Publish(ctx context.Context, event entity.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.EventPublisher = Fanout(nil)
