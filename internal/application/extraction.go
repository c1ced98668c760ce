package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

type ExtractionService struct {
	store     port.FrameStore
	artifacts port.ArtifactStore
	publisher port.EventPublisher
	cutoffs   entity.Cutoffs
	now       func() time.Time
}

// NewExtractionService создаёт сервис анализа ROI с фиксированными порогами.
func NewExtractionService(store port.FrameStore, artifacts port.ArtifactStore, publisher port.EventPublisher, cutoffs entity.Cutoffs) *ExtractionService {
	return &ExtractionService{
		store:     store,
		artifacts: artifacts,
		publisher: publisher,
		cutoffs:   cutoffs,
		now:       time.Now,
	}
}

// Cutoffs возвращает пороги сервиса
func (s *ExtractionService) Cutoffs() entity.Cutoffs {
	return s.cutoffs
}

// Extract вырезает четыре окна из последнего кадра, нормирует их вместе,
// считает счёт по мишеням и пишет CSV.
func (s *ExtractionService) Extract(ctx context.Context, rois []entity.ROI) (*entity.AnalysisResult, error) {
	if s.artifacts == nil {
		return nil, errors.New("artifact store is not configured")
	}

	frame, err := s.latest(ctx, len(rois))
	if err != nil {
		return nil, err
	}

	result, err := Analyze(frame, rois, s.cutoffs)
	if err != nil {
		return nil, err
	}
	result.RunID = uuid.NewString()
	result.CreatedAt = s.now()

	path, err := s.artifacts.SaveNormalized(ctx, result.CreatedAt, result.Normalized)
	if err != nil {
		return nil, fmt.Errorf("save normalized samples: %w", err)
	}
	result.CSVPath = path

	if frame.IsSynthetic() {
		log.Printf("Extraction %s computed from synthetic frame %s", result.RunID, frame.ID)
	}

	if s.publisher != nil {
		event := entity.Event{
			Type:      entity.EventExtract,
			FrameID:   frame.ID,
			Source:    frame.Source,
			Analysis:  result,
			Timestamp: result.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("Error publishing %s event: %v", event.Type, err)
		}
	}

	return result, nil
}

// Precheck проверяет, что кадр снят и ROI ровно четыре, без анализа.
// Порядок тот же, что в Extract: сначала кадр, потом число ROI.
func (s *ExtractionService) Precheck(ctx context.Context, count int) error {
	_, err := s.latest(ctx, count)
	return err
}

func (s *ExtractionService) latest(ctx context.Context, count int) (*entity.Frame, error) {
	frame, err := s.store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if count != entity.ROICount {
		return nil, entity.ErrROICount
	}
	return frame, nil
}

// Analyze считает результат без побочных эффектов.
func Analyze(frame *entity.Frame, rois []entity.ROI, cutoffs entity.Cutoffs) (*entity.AnalysisResult, error) {
	if len(rois) != entity.ROICount {
		return nil, entity.ErrROICount
	}
	if frame == nil || frame.Gray == nil {
		return nil, entity.ErrNoFrame
	}
	b := frame.Bounds()
	if b.Dx() != entity.FrameWidth || b.Dy() != entity.FrameHeight {
		return nil, entity.ErrFrameSize
	}

	clamped := make([]entity.ROI, len(rois))
	samples := make([]uint8, 0, entity.ROICount*entity.ROIPixels)
	for i, roi := range rois {
		clamped[i] = roi.Clamp()
		x, y := clamped[i].TopLeft()
		samples = append(samples, frame.Window(b.Min.X+x, b.Min.Y+y, entity.ROISize)...)
	}

	norm, vmin, vmax := Normalize(samples)

	result := &entity.AnalysisResult{
		FrameID:     frame.ID,
		FrameSource: frame.Source,
		ROIs:        clamped,
		ControlOK:   !allZero(norm[:entity.ROIPixels]),
		VMin:        vmin,
		VMax:        vmax,
		Normalized:  norm,
	}
	for i, analyte := range entity.Analytes {
		block := norm[(i+1)*entity.ROIPixels : (i+2)*entity.ROIPixels]
		score := Score(block)
		cutoff := cutoffs.For(analyte)
		result.Results[i] = entity.AnalyteResult{
			Analyte: analyte,
			Status:  entity.Classify(score, cutoff),
			Score:   score,
			Cutoff:  cutoff,
		}
	}
	return result, nil
}

// Normalize растягивает отсчёты на 0..255 по общему минимуму и максимуму.
// Если все отсчёты равны, результат нулевой.
func Normalize(samples []uint8) (norm []uint8, vmin, vmax int) {
	norm = make([]uint8, len(samples))
	if len(samples) == 0 {
		return norm, 0, 0
	}

	vals := make([]float64, len(samples))
	for i, v := range samples {
		vals[i] = float64(v)
	}
	lo, hi := floats.Min(vals), floats.Max(vals)
	vmin, vmax = int(lo), int(hi)
	if vmax <= vmin {
		return norm, vmin, vmax
	}

	floats.AddConst(-lo, vals)
	floats.Scale(255.0/(hi-lo), vals)
	for i, v := range vals {
		norm[i] = uint8(math.RoundToEven(v))
	}
	return norm, vmin, vmax
}

// Score сумма нормированных отсчётов, делённых на 255.
func Score(block []uint8) float64 {
	vals := make([]float64, len(block))
	for i, v := range block {
		vals[i] = float64(v) / 255.0
	}
	return floats.Sum(vals)
}

func allZero(block []uint8) bool {
	for _, v := range block {
		if v != 0 {
			return false
		}
	}
	return true
}
