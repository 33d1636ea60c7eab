package models

import "errors"

var (
	ErrPermissionDenied    = errors.New("camera permission denied")
	ErrDeviceUnavailable   = errors.New("camera device unavailable")
	ErrNoActiveStream      = errors.New("no active camera stream")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrInvalidTargetFormat = errors.New(`invalid target coordinate format, use "latitude,longitude"`)
)
