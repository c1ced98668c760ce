package entity

const (
	// ROISize сторона квадратного окна ROI в пикселях
	ROISize = 50

	// ROICount число ROI на картридже: контроль + три мишени
	ROICount = 4

	// ROIPixels отсчётов в одном окне
	ROIPixels = ROISize * ROISize
)

// ROI центр окна интереса в координатах повёрнутого кадра
type ROI struct {
	CX int `json:"cx"`
	CY int `json:"cy"`
}

// Clamp сдвигает центр так, чтобы окно ROISize x ROISize осталось внутри кадра.
func (r ROI) Clamp() ROI {
	half := ROISize / 2
	return ROI{
		CX: clamp(r.CX, half, FrameWidth-half),
		CY: clamp(r.CY, half, FrameHeight-half),
	}
}

// TopLeft возвращает левый верхний угол окна
func (r ROI) TopLeft() (x, y int) {
	half := ROISize / 2
	return r.CX - half, r.CY - half
}

// DefaultROIs положение окон по умолчанию: контроль, HIV, HBV, HCV.
func DefaultROIs() []ROI {
	return []ROI{
		{CX: 35, CY: 125},
		{CX: 125, CY: 125},
		{CX: 35, CY: 35},
		{CX: 125, CY: 35},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
