//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"multicap-dx/internal/domain/entity"
	"multicap-dx/internal/domain/port"
)

// PNGRenderer рендерит кадр в PNG через OpenCV.
type PNGRenderer struct{}

// NewPNGRenderer создаёт рендерер кадра
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{}
}

// RenderPNG увеличивает кадр INTER_NEAREST и кодирует в PNG.
func (r *PNGRenderer) RenderPNG(frame *entity.Frame, scale int) ([]byte, error) {
	if frame == nil || frame.Gray == nil {
		return nil, errors.New("empty frame")
	}
	if scale < 1 {
		scale = 1
	}

	mat, err := gocv.ImageGrayToMatGray(frame.Gray)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if scale != 1 {
		gocv.Resize(mat, &mat, image.Pt(mat.Cols()*scale, mat.Rows()*scale), 0, 0, gocv.InterpolationNearestNeighbor)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

var _ port.FrameRenderer = (*PNGRenderer)(nil)
