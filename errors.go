package functime

import "errors"

var (
	// ErrInvalidParameter is returned when a splitter is configured with a
	// parameter of the wrong type or outside its allowed range.
	ErrInvalidParameter = errors.New("invalid splitter parameter")

	// ErrInsufficientData is returned when the dataset's smallest entity
	// cannot supply the requested number of test rows.
	ErrInsufficientData = errors.New("insufficient data for split")
)
