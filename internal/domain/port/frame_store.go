package port

import (
	"context"

	"multicap-dx/internal/domain/entity"
)

// FrameStore хранит последний снятый кадр
type FrameStore interface {
	// Put заменяет последний кадр
	Put(ctx context.Context, frame *entity.Frame) error

	// Latest возвращает копию последнего кадра или entity.ErrNoFrame
	Latest(ctx context.Context) (*entity.Frame, error)
}
