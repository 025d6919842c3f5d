package utils

import "time"

// Clock abstracts time so expiry logic can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the production clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}
