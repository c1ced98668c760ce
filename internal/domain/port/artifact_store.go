package port

import (
	"context"
	"time"
)

// ArtifactStore пишет CSV с нормированными отсчётами
type ArtifactStore interface {
	// SaveNormalized сохраняет одну строку отсчётов и возвращает относительный путь
	SaveNormalized(ctx context.Context, at time.Time, samples []uint8) (string, error)

	// Resolve проверяет путь из запроса на скачивание и возвращает путь к файлу
	Resolve(name string) (string, error)
}
