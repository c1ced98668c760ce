package serial

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// NoiseReader отдаёт кадр равномерного шума 0..254. Используется как подмена,
// когда считыватель недоступен.
type NoiseReader struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNoiseReader создаёт генератор шума; seed == 0 берёт текущее время.
func NewNoiseReader(seed int64) *NoiseReader {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &NoiseReader{rng: rand.New(rand.NewSource(seed))}
}

// Read возвращает синтетический кадр
func (n *NoiseReader) Read(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples := make([]uint8, entity.FramePixels)
	n.mu.Lock()
	for i := range samples {
		samples[i] = uint8(n.rng.Float64() * 255)
	}
	n.mu.Unlock()

	frame, err := entity.NewFrame(samples, entity.FrameWidth, entity.FrameHeight)
	if err != nil {
		return nil, err
	}
	frame.Source = entity.SourceSynthetic
	return frame, nil
}

var _ port.FrameReader = (*NoiseReader)(nil)
