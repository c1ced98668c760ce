package entity

import "time"

// EventType тип события для подписчиков
type EventType string

const (
	EventCapture EventType = "capture"
	EventExtract EventType = "extract"
)

// Event уведомление о съёмке или анализе.
type Event struct {
	Type      EventType       `json:"type"`
	FrameID   string          `json:"frame_id"`
	Source    FrameSource     `json:"source"`
	Warning   string          `json:"warning,omitempty"`
	ImagePNG  []byte          `json:"-"`
	Analysis  *AnalysisResult `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
}
