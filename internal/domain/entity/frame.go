package entity

import (
	"image"
	"time"
)

const (
	FrameWidth  = 160 // ширина кадра в пикселях
	FrameHeight = 160 // высота кадра в пикселях

	// FramePixels количество отсчётов в одном кадре
	FramePixels = FrameWidth * FrameHeight
)

// FrameSource откуда получен кадр
type FrameSource string

const (
	SourceSerial    FrameSource = "serial"    // кадр с микроконтроллера
	SourceSynthetic FrameSource = "synthetic" // случайный шум вместо кадра
)

// Frame кадр считывателя: 160x160 отсчётов яркости 0..255.
type Frame struct {
	*image.Gray
	ID         string
	Source     FrameSource
	CapturedAt time.Time
}

// NewFrame собирает кадр из отсчётов в построчном порядке.
func NewFrame(samples []uint8, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 || len(samples) != width*height {
		return nil, ErrFrameSize
	}
	gray := image.NewGray(image.Rect(0, 0, width, height))
	copy(gray.Pix, samples)
	return &Frame{Gray: gray}, nil
}

// IsSynthetic true если кадр подменён шумом
func (f *Frame) IsSynthetic() bool {
	return f.Source == SourceSynthetic
}

// Clone возвращает независимую копию кадра.
func (f *Frame) Clone() *Frame {
	out := *f
	if f.Gray != nil {
		gray := image.NewGray(f.Gray.Rect)
		copy(gray.Pix, f.Gray.Pix)
		out.Gray = gray
	}
	return &out
}

// Window возвращает отсчёты квадратного окна size x size с левым верхним углом (x, y).
func (f *Frame) Window(x, y, size int) []uint8 {
	out := make([]uint8, 0, size*size)
	for row := y; row < y+size; row++ {
		start := f.PixOffset(x, row)
		out = append(out, f.Pix[start:start+size]...)
	}
	return out
}

// CaptureResult итог съёмки: кадр и причина подмены, если кадр синтетический.
type CaptureResult struct {
	Frame          *Frame
	FallbackReason error
}

// Warning текст предупреждения для оператора, пустой для настоящего кадра.
func (r *CaptureResult) Warning() string {
	if r.Frame == nil || !r.Frame.IsSynthetic() {
		return ""
	}
	if r.FallbackReason == nil {
		return "synthetic frame: reader unavailable"
	}
	return "synthetic frame: " + r.FallbackReason.Error()
}
