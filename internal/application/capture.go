package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// DisplayScale увеличение кадра для браузера
const DisplayScale = 3

type CaptureService struct {
	reader    port.FrameReader
	fallback  port.FrameReader
	rotator   port.FrameRotator
	renderer  port.FrameRenderer
	store     port.FrameStore
	publisher port.EventPublisher
	now       func() time.Time
}

// CaptureOutput кадр, PNG для отображения и причина подмены кадра.
type CaptureOutput struct {
	Capture entity.CaptureResult
	PNG     []byte
	Scale   int
}

// NewCaptureService создаёт сервис съёмки. fallback может быть nil, тогда ошибка
// считывателя возвращается вызывающему.
func NewCaptureService(reader, fallback port.FrameReader, rotator port.FrameRotator, renderer port.FrameRenderer, store port.FrameStore, publisher port.EventPublisher) *CaptureService {
	return &CaptureService{
		reader:    reader,
		fallback:  fallback,
		rotator:   rotator,
		renderer:  renderer,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Capture снимает кадр, поворачивает его, сохраняет и рендерит PNG.
func (s *CaptureService) Capture(ctx context.Context) (*CaptureOutput, error) {
	if s.reader == nil {
		return nil, errors.New("frame reader is not configured")
	}

	result := entity.CaptureResult{}
	frame, readErr := s.reader.Read(ctx)
	if readErr != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrAcquisition, readErr)
		}
		log.Printf("[Serial] Fallback: %v", readErr)
		var err error
		frame, err = s.fallback.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("synthetic frame: %w", err)
		}
		frame.Source = entity.SourceSynthetic
		result.FallbackReason = readErr
	}
	if frame.Source == "" {
		frame.Source = entity.SourceSerial
	}

	rotated := s.rotator.RotateClockwise(frame)
	rotated.ID = uuid.NewString()
	rotated.Source = frame.Source
	rotated.CapturedAt = s.now()
	result.Frame = rotated

	if err := s.store.Put(ctx, rotated); err != nil {
		return nil, fmt.Errorf("store frame: %w", err)
	}

	png, err := s.renderer.RenderPNG(rotated, DisplayScale)
	if err != nil {
		return nil, fmt.Errorf("render frame: %w", err)
	}

	s.publish(ctx, entity.Event{
		Type:      entity.EventCapture,
		FrameID:   rotated.ID,
		Source:    rotated.Source,
		Warning:   result.Warning(),
		ImagePNG:  png,
		Timestamp: rotated.CapturedAt,
	})

	return &CaptureOutput{Capture: result, PNG: png, Scale: DisplayScale}, nil
}

func (s *CaptureService) publish(ctx context.Context, event entity.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("Error publishing %s event: %v", event.Type, err)
	}
}
