package entity

import "time"

// Status итог по одной мишени
type Status string

const (
	StatusPositive Status = "Positive"
	StatusNegative Status = "Negative"
)

// Analyte вирусная мишень картриджа
type Analyte string

const (
	AnalyteHIV Analyte = "HIV"
	AnalyteHBV Analyte = "HBV"
	AnalyteHCV Analyte = "HCV"
)

// Analytes порядок мишеней совпадает с ROI 1..3
var Analytes = [3]Analyte{AnalyteHIV, AnalyteHBV, AnalyteHCV}

// Cutoffs пороги классификации, шкала счёта 0..2500.
type Cutoffs struct {
	HIV float64 `json:"hiv"`
	HBV float64 `json:"hbv"`
	HCV float64 `json:"hcv"`
}

// DefaultCutoffs пороги по умолчанию
func DefaultCutoffs() Cutoffs {
	return Cutoffs{HIV: 97.5, HBV: 195.5, HCV: 134.7}
}

// For возвращает порог для мишени
func (c Cutoffs) For(a Analyte) float64 {
	switch a {
	case AnalyteHIV:
		return c.HIV
	case AnalyteHBV:
		return c.HBV
	default:
		return c.HCV
	}
}

// Classify строго больше порога — положительный.
func Classify(score, cutoff float64) Status {
	if score > cutoff {
		return StatusPositive
	}
	return StatusNegative
}

// AnalyteResult счёт и статус одной мишени
type AnalyteResult struct {
	Analyte Analyte `json:"-"`
	Status  Status  `json:"status"`
	Score   float64 `json:"score"`
	Cutoff  float64 `json:"cutoff"`
}

// AnalysisResult итог извлечения ROI.
type AnalysisResult struct {
	RunID       string
	FrameID     string
	FrameSource FrameSource
	ROIs        []ROI // центры после ограничения
	ControlOK   bool
	Results     [3]AnalyteResult // HIV, HBV, HCV
	VMin        int
	VMax        int
	Normalized  []uint8 // 4 x ROIPixels
	CSVPath     string
	CreatedAt   time.Time
}

// Result возвращает итог по мишени
func (r *AnalysisResult) Result(a Analyte) AnalyteResult {
	for _, res := range r.Results {
		if res.Analyte == a {
			return res
		}
	}
	return AnalyteResult{Analyte: a, Status: StatusNegative}
}

// Report плоское представление результата для JSON-ответов и публикаций.
type Report struct {
	RunID       string        `json:"run_id"`
	FrameID     string        `json:"frame_id"`
	FrameSource FrameSource   `json:"frame_source"`
	CSV         string        `json:"csv"`
	ControlOK   bool          `json:"ic_ok"`
	HIV         AnalyteResult `json:"hiv"`
	HBV         AnalyteResult `json:"hbv"`
	HCV         AnalyteResult `json:"hcv"`
	VMin        int           `json:"vmin"`
	VMax        int           `json:"vmax"`
	ROIs        []ROI         `json:"rois"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Report собирает Report из результата
func (r *AnalysisResult) Report() Report {
	return Report{
		RunID:       r.RunID,
		FrameID:     r.FrameID,
		FrameSource: r.FrameSource,
		CSV:         r.CSVPath,
		ControlOK:   r.ControlOK,
		HIV:         r.Result(AnalyteHIV),
		HBV:         r.Result(AnalyteHBV),
		HCV:         r.Result(AnalyteHCV),
		VMin:        r.VMin,
		VMax:        r.VMax,
		ROIs:        r.ROIs,
		CreatedAt:   r.CreatedAt,
	}
}
