package model

import "errors"

// ErrInsufficientData is returned when a series is shorter than an operation requires
var ErrInsufficientData = errors.New("insufficient data")
