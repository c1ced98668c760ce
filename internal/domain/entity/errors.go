package entity

import "errors"

var (
	ErrFrameSize        = errors.New("frame size mismatch")
	ErrShortFrame       = errors.New("not enough data from MCU")
	ErrAcquisition      = errors.New("frame acquisition failed")
	ErrNoFrame          = errors.New("capture first")
	ErrROICount         = errors.New("need 4 ROIs")
	ErrInvalidROI       = errors.New("ROI requires cx and cy")
	ErrInvalidPath      = errors.New("invalid path")
	ErrArtifactNotFound = errors.New("file not found")
)
