package web

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "multicap-dx/internal/application"
	"multicap-dx/internal/domain/port"
)

//go:embed index.html
var assets embed.FS

var indexTemplate = template.Must(template.ParseFS(assets, "index.html"))

// Server HTTP-интерфейс считывателя: UI, съёмка, анализ, скачивание CSV.
type Server struct {
	capture    *app.CaptureService
	extraction *app.ExtractionService
	artifacts  port.ArtifactStore
	hub        *Hub
	http       *http.Server
}

// NewServer собирает сервер; hub может быть nil, тогда /ws не регистрируется.
func NewServer(addr string, capture *app.CaptureService, extraction *app.ExtractionService, artifacts port.ArtifactStore, hub *Hub) *Server {
	s := &Server{
		capture:    capture,
		extraction: extraction,
		artifacts:  artifacts,
		hub:        hub,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router возвращает маршруты сервера
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	// пути скачивания проверяет хранилище, mux их не чистит
	r.SkipClean(true)

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/defaults", s.handleDefaults).Methods("GET")
	r.HandleFunc("/api/generate", s.handleCapture).Methods("POST")
	r.HandleFunc("/api/extract", s.handleExtract).Methods("POST")
	r.HandleFunc("/download/{filename:.+}", s.handleDownload).Methods("GET")
	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}
	return r
}

// Start слушает адрес до отмены ctx и корректно останавливается.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting Multicap Dx UI on http://%s ...", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return s.http.Close()
	}
	return nil
}
