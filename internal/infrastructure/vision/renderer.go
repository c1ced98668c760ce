//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// PNGRenderer рендерит кадр в PNG без OpenCV.
type PNGRenderer struct{}

// NewPNGRenderer создаёт рендерер кадра
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{}
}

// RenderPNG увеличивает кадр ближайшим соседом и кодирует в PNG.
func (r *PNGRenderer) RenderPNG(frame *entity.Frame, scale int) ([]byte, error) {
	if frame == nil || frame.Gray == nil {
		return nil, errors.New("empty frame")
	}
	if scale < 1 {
		scale = 1
	}

	src := frame.Bounds()
	var img image.Image = frame.Gray
	if scale != 1 {
		dst := image.NewGray(image.Rect(0, 0, src.Dx()*scale, src.Dy()*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), frame.Gray, src, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ port.FrameRenderer = (*PNGRenderer)(nil)
