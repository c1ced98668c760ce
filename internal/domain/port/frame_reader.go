package port

import (
	"context"

	"multicap-dx/internal/domain/entity"
)

// FrameReader источник кадров считывателя
type FrameReader interface {
	// Read запрашивает один кадр и ждёт его целиком
	Read(ctx context.Context) (*entity.Frame, error)
}

// FrameRotator поворачивает кадр перед сохранением
type FrameRotator interface {
	RotateClockwise(frame *entity.Frame) *entity.Frame
}

// FrameRenderer кодирует кадр в PNG для отображения
type FrameRenderer interface {
	// RenderPNG увеличивает кадр в scale раз и возвращает PNG
	RenderPNG(frame *entity.Frame, scale int) ([]byte, error)
}
