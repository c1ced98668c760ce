package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	app "multicap-dx/internal/application"
	"multicap-dx/internal/domain/entity"
)

type captureResponse struct {
	OK       bool               `json:"ok"`
	ImageB64 string             `json:"image_b64"`
	Scale    int                `json:"scale"`
	FrameID  string             `json:"frame_id"`
	Source   entity.FrameSource `json:"source"`
	Warning  string             `json:"warning,omitempty"`
}

type extractResponse struct {
	OK bool `json:"ok"`
	entity.Report
}

type extractRequest struct {
	ROIs []roiPayload `json:"rois"`
}

// roiPayload принимает дробные координаты, они усекаются как int()
type roiPayload struct {
	CX *float64 `json:"cx"`
	CY *float64 `json:"cy"`
}

type defaultsResponse struct {
	ROIs        []entity.ROI   `json:"rois"`
	Cutoffs     entity.Cutoffs `json:"cutoffs"`
	FrameWidth  int            `json:"frame_width"`
	FrameHeight int            `json:"frame_height"`
	ROISize     int            `json:"roi_size"`
}

type indexData struct {
	DefaultROIs []entity.ROI
	Width       int
	Height      int
	ROISize     int
	Scale       int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		DefaultROIs: entity.DefaultROIs(),
		Width:       entity.FrameWidth,
		Height:      entity.FrameHeight,
		ROISize:     entity.ROISize,
		Scale:       app.DisplayScale,
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("Error rendering index: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK\n"))
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, defaultsResponse{
		ROIs:        entity.DefaultROIs(),
		Cutoffs:     s.extraction.Cutoffs(),
		FrameWidth:  entity.FrameWidth,
		FrameHeight: entity.FrameHeight,
		ROISize:     entity.ROISize,
	})
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	out, err := s.capture.Capture(r.Context())
	if err != nil {
		log.Printf("Capture failed: %v", err)
		if errors.Is(err, entity.ErrAcquisition) {
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "capture failed")
		return
	}

	frame := out.Capture.Frame
	writeJSON(w, http.StatusOK, captureResponse{
		OK:       true,
		ImageB64: base64.StdEncoding.EncodeToString(out.PNG),
		Scale:    out.Scale,
		FrameID:  frame.ID,
		Source:   frame.Source,
		Warning:  out.Capture.Warning(),
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// тело не разобралось: считаем, что ROI не передали
		req.ROIs = nil
	}

	rois := make([]entity.ROI, 0, len(req.ROIs))
	for _, p := range req.ROIs {
		if p.CX == nil || p.CY == nil {
			// кривой ROI сообщаем только после проверки кадра и числа ROI
			err := s.extraction.Precheck(r.Context(), len(req.ROIs))
			if err == nil {
				err = entity.ErrInvalidROI
			}
			writeExtractError(w, err)
			return
		}
		rois = append(rois, entity.ROI{
			CX: truncateCenter(*p.CX, entity.FrameWidth),
			CY: truncateCenter(*p.CY, entity.FrameHeight),
		})
	}

	result, err := s.extraction.Extract(r.Context(), rois)
	if err != nil {
		writeExtractError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{OK: true, Report: result.Report()})
}

func writeExtractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrNoFrame):
		writeJSONError(w, http.StatusBadRequest, "Capture first")
	case errors.Is(err, entity.ErrROICount):
		writeJSONError(w, http.StatusBadRequest, "Need 4 ROIs")
	case errors.Is(err, entity.ErrInvalidROI):
		writeJSONError(w, http.StatusBadRequest, entity.ErrInvalidROI.Error())
	default:
		log.Printf("Extract failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "extract failed")
	}
}

// truncateCenter усекает координату к int, предварительно прижав её к [0, limit],
// чтобы огромные значения не переполняли int.
func truncateCenter(v float64, limit int) int {
	if v < 0 {
		return 0
	}
	if v > float64(limit) {
		return limit
	}
	return int(v)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	path, err := s.artifacts.Resolve(name)
	switch {
	case errors.Is(err, entity.ErrInvalidPath):
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	case errors.Is(err, entity.ErrArtifactNotFound):
		http.Error(w, "File not found", http.StatusNotFound)
		return
	case err != nil:
		log.Printf("Download failed: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	w.Header().Set("Content-Type", "text/csv")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": msg})
}
