package vision

import (
	"image"

	"github.com/disintegration/gift"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// GiftRotator поворачивает кадр на 90° по часовой стрелке.
type GiftRotator struct {
	g *gift.GIFT
}

// NewGiftRotator создаёт поворот кадра
func NewGiftRotator() *GiftRotator {
	// Rotate270 против часовой стрелки = 90 по часовой
	return &GiftRotator{g: gift.New(gift.Rotate270())}
}

// RotateClockwise возвращает новый кадр, метаданные копируются.
func (r *GiftRotator) RotateClockwise(frame *entity.Frame) *entity.Frame {
	dst := image.NewGray(r.g.Bounds(frame.Bounds()))
	r.g.Draw(dst, frame.Gray)

	out := *frame
	out.Gray = dst
	return &out
}

var _ port.FrameRotator = (*GiftRotator)(nil)
