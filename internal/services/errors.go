package services

import "errors"

// ErrNotLoaded means no load has completed yet
var ErrNotLoaded = errors.New("sales data not loaded")
