package entity

import "time"

// Clock supplies revision timestamps (microseconds).
type Clock interface {
	Now() int64
}

// SystemClock reads wall time.
type SystemClock struct{}

// Now returns the current Unix time in microseconds.
func (SystemClock) Now() int64 {
	return time.Now().UnixMicro()
}
