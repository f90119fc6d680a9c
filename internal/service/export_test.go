package service

import "time"

// SetNow overrides the service clock and returns a restore func.
func SetNow(fn func() time.Time) func() {
	prev := nowFunc
	nowFunc = fn
	return func() { nowFunc = prev }
}
