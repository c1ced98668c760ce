package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

const (
	dateDirLayout  = "01-02-2006"
	fileTimeLayout = "15-04-05"
	csvSuffix      = "_ROI_NORMALIZED.csv"
)

// CSVArtifactStore пишет нормированные отсчёты в <root>/<MM-DD-YYYY>/<HH-MM-SS>_ROI_NORMALIZED.csv.
// Пути, которые отдаются клиенту, относительны рабочему каталогу и начинаются с root.
type CSVArtifactStore struct {
	root string
}

// NewCSVArtifactStore создаёт хранилище с корнем root (например, "roi_extract").
func NewCSVArtifactStore(root string) *CSVArtifactStore {
	return &CSVArtifactStore{root: filepath.Clean(root)}
}

// Root корневой каталог выгрузки
func (s *CSVArtifactStore) Root() string {
	return s.root
}

// SaveNormalized пишет одну строку без заголовка и возвращает путь вида root/дата/файл.
func (s *CSVArtifactStore) SaveNormalized(ctx context.Context, at time.Time, samples []uint8) (string, error) {
	dir := filepath.Join(s.root, at.Format(dateDirLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := filepath.Join(dir, at.Format(fileTimeLayout)+csvSuffix)
	f, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	record := make([]string, len(samples))
	for i, v := range samples {
		record[i] = strconv.Itoa(int(v))
	}

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	return filepath.ToSlash(name), nil
}

// Resolve принимает путь из URL скачивания. Всё, что после очистки не лежит
// внутри root, отклоняется с entity.ErrInvalidPath независимо от наличия файла.
func (s *CSVArtifactStore) Resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", entity.ErrInvalidPath
	}
	cleaned := filepath.Clean(filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, cleaned)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", entity.ErrInvalidPath
	}

	info, err := os.Stat(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return "", entity.ErrArtifactNotFound
		}
		return "", fmt.Errorf("stat artifact: %w", err)
	}
	if info.IsDir() {
		return "", entity.ErrArtifactNotFound
	}
	return cleaned, nil
}

// Проверка реализации интерфейса
var _ port.ArtifactStore = (*CSVArtifactStore)(nil)
