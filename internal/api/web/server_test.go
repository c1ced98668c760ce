package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	app "multicap-dx/internal/application"
	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
	"multicap-dx/internal/infrastructure/serial"
	"multicap-dx/internal/infrastructure/storage"
	"multicap-dx/internal/infrastructure/vision"
)

type failingReader struct{}

func (failingReader) Read(ctx context.Context) (*entity.Frame, error) {
	return nil, errors.New("open COM7: no such file or directory")
}

// newTestServer собирает сервер поверх временного рабочего каталога
func newTestServer(t *testing.T, fallback port.FrameReader, hub *Hub) *Server {
	t.Helper()
	chdirTemp(t)

	store := storage.NewMemoryFrameStore()
	artifacts := storage.NewCSVArtifactStore("roi_extract")
	var publisher port.EventPublisher
	if hub != nil {
		publisher = hub
	}
	capture := app.NewCaptureService(failingReader{}, fallback, vision.NewGiftRotator(), vision.NewPNGRenderer(), store, publisher)
	extraction := app.NewExtractionService(store, artifacts, publisher, entity.DefaultCutoffs())
	return NewServer("127.0.0.1:0", capture, extraction, artifacts, hub)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const fiveROIs = `{"rois":[{"cx":35,"cy":125},{"cx":125,"cy":125},{"cx":35,"cy":35},{"cx":125,"cy":35},{"cx":80,"cy":80}]}`

const fourROIs = `{"rois":[{"cx":35,"cy":125},{"cx":125,"cy":125},{"cx":35.9,"cy":35},{"cx":125,"cy":35}]}`

func TestServer_IndexHealthDefaults(t *testing.T) {
	h := newTestServer(t, serial.NewNoiseReader(1), nil).Router()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Multicap Dx")
	require.NotContains(t, rec.Body.String(), "{{")
	require.Contains(t, rec.Body.String(), "DEFAULT_ROIS")
	require.Contains(t, rec.Body.String(), `new WebSocket(proto + location.host + "/ws")`)

	rec = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK\n", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/defaults", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var defaults defaultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defaults))
	require.Equal(t, entity.DefaultROIs(), defaults.ROIs)
	require.Equal(t, entity.DefaultCutoffs(), defaults.Cutoffs)
}

func TestServer_ExtractBeforeCapture(t *testing.T) {
	h := newTestServer(t, serial.NewNoiseReader(1), nil).Router()

	rec := do(t, h, http.MethodPost, "/api/extract", fourROIs)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	require.Equal(t, false, body["ok"])
	require.Equal(t, "Capture first", body["error"])

	for _, payload := range []string{
		fiveROIs,
		`{"rois":[{"cx":1},{"cx":1,"cy":1},{"cx":1,"cy":1},{"cx":1,"cy":1}]}`,
	} {
		rec = do(t, h, http.MethodPost, "/api/extract", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Capture first", decode(t, rec)["error"], payload)
	}
}

func TestServer_CaptureExtractDownload(t *testing.T) {
	h := newTestServer(t, serial.NewNoiseReader(1), nil).Router()

	rec := do(t, h, http.MethodPost, "/api/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var capture captureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &capture))
	require.True(t, capture.OK)
	require.Equal(t, app.DisplayScale, capture.Scale)
	require.Equal(t, entity.SourceSynthetic, capture.Source)
	require.Contains(t, capture.Warning, "no such file")

	raw, err := base64.StdEncoding.DecodeString(capture.ImageB64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 480, img.Bounds().Dx())

	rec = do(t, h, http.MethodPost, "/api/extract", `{"rois":[{"cx":35,"cy":125}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Need 4 ROIs", decode(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/extract", "not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Need 4 ROIs", decode(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/extract", fiveROIs)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Need 4 ROIs", decode(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/extract", `{"rois":[{"cx":1},{"cx":1,"cy":1},{"cx":1,"cy":1},{"cx":1,"cy":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, entity.ErrInvalidROI.Error(), decode(t, rec)["error"])

	// число ROI проверяется раньше содержимого
	rec = do(t, h, http.MethodPost, "/api/extract", `{"rois":[{"cx":1},{"cx":1,"cy":1},{"cx":1,"cy":1},{"cx":1,"cy":1},{"cx":1,"cy":1}]}`)
	require.Equal(t, "Need 4 ROIs", decode(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/extract", `{"rois":[{"cx":1e20,"cy":-1e20},{"cx":125,"cy":125},{"cx":35,"cy":35},{"cx":125,"cy":35}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var huge extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &huge))
	require.Equal(t, entity.ROI{CX: 135, CY: 25}, huge.ROIs[0])

	rec = do(t, h, http.MethodPost, "/api/extract", fourROIs)
	require.Equal(t, http.StatusOK, rec.Code)
	var report extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.True(t, report.OK)
	require.Equal(t, capture.FrameID, report.FrameID)
	require.Equal(t, entity.SourceSynthetic, report.FrameSource)
	require.Equal(t, entity.ROI{CX: 35, CY: 35}, report.ROIs[2])
	require.True(t, strings.HasPrefix(report.CSV, "roi_extract/"))
	require.NotEmpty(t, report.HIV.Status)

	rec = do(t, h, http.MethodGet, "/download/"+report.CSV, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "_ROI_NORMALIZED.csv")
	want, err := os.ReadFile(report.CSV)
	require.NoError(t, err)
	require.Equal(t, string(want), rec.Body.String())
}

func TestServer_DownloadRejectsTraversal(t *testing.T) {
	h := newTestServer(t, nil, nil).Router()
	require.NoError(t, os.WriteFile("secret.csv", []byte("x"), 0o644))

	for _, target := range []string{
		"/download/roi_extract/../secret.csv",
		"/download/secret.csv",
		"/download/roi_extract_evil/a.csv",
	} {
		rec := do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := do(t, h, http.MethodGet, "/download/roi_extract/10-16-2026/none.csv", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CaptureWithoutFallback(t *testing.T) {
	h := newTestServer(t, nil, nil).Router()

	rec := do(t, h, http.MethodPost, "/api/generate", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, false, decode(t, rec)["ok"])

	rec = do(t, h, http.MethodPost, "/api/extract", fourROIs)
	require.Equal(t, "Capture first", decode(t, rec)["error"])
}

func TestTruncateCenter(t *testing.T) {
	require.Equal(t, 35, truncateCenter(35.9, entity.FrameWidth))
	require.Equal(t, entity.FrameWidth, truncateCenter(1e20, entity.FrameWidth))
	require.Equal(t, 0, truncateCenter(-1e20, entity.FrameWidth))
	require.Equal(t, 0, truncateCenter(-0.5, entity.FrameWidth))
}

// chdirTemp changes the working directory to a fresh temp dir for the
// duration of the test (equivalent to t.Chdir(t.TempDir()) on Go >= 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
