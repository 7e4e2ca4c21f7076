package core

import (
	"errors"
)

var (
	ErrEventsNotInitialized = errors.New("event system used before initialization")
)
