package errors

import "errors"

var (
	ErrInvalidEventInput  = errors.New("invalid game event input")
	ErrEventBatchTooLarge = errors.New("game event batch too large")
	ErrInvalidMetricType  = errors.New("invalid metric type")
	ErrIndexNotFound      = errors.New("girth index not found")
	ErrVersionConflict    = errors.New("girth index version conflict")
	ErrConflict           = errors.New("conflict")
)
