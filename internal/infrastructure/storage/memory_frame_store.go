package storage

import (
	"context"
	"sync"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// MemoryFrameStore in-memory ячейка с последним кадром
type MemoryFrameStore struct {
	mu    sync.RWMutex
	frame *entity.Frame
}

// NewMemoryFrameStore создаёт пустое хранилище кадра
func NewMemoryFrameStore() *MemoryFrameStore {
	return &MemoryFrameStore{}
}

// Put заменяет последний кадр копией переданного
func (s *MemoryFrameStore) Put(ctx context.Context, frame *entity.Frame) error {
	if frame == nil || frame.Gray == nil {
		return entity.ErrFrameSize
	}
	clone := frame.Clone()

	s.mu.Lock()
	s.frame = clone
	s.mu.Unlock()

	return nil
}

// Latest возвращает копию последнего кадра
func (s *MemoryFrameStore) Latest(ctx context.Context) (*entity.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.frame == nil {
		return nil, entity.ErrNoFrame
	}
	return s.frame.Clone(), nil
}

// Проверка реализации интерфейса
var _ port.FrameStore = (*MemoryFrameStore)(nil)
