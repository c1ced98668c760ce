package container

import (
	app "multicap-dx/internal/application"
	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

type Container struct {
	CaptureService    *app.CaptureService
	ExtractionService *app.ExtractionService
	FrameStore        port.FrameStore
	Artifacts         port.ArtifactStore
}

// Deps внешние зависимости сервисов. Fallback и Publisher необязательны.
type Deps struct {
	Reader    port.FrameReader
	Fallback  port.FrameReader
	Rotator   port.FrameRotator
	Renderer  port.FrameRenderer
	Store     port.FrameStore
	Artifacts port.ArtifactStore
	Publisher port.EventPublisher
	Cutoffs   entity.Cutoffs
}

func New(d Deps) *Container {
	captureService := app.NewCaptureService(d.Reader, d.Fallback, d.Rotator, d.Renderer, d.Store, d.Publisher)
	extractionService := app.NewExtractionService(d.Store, d.Artifacts, d.Publisher, d.Cutoffs)

	return &Container{
		CaptureService:    captureService,
		ExtractionService: extractionService,
		FrameStore:        d.Store,
		Artifacts:         d.Artifacts,
	}
}
