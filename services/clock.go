package services

import "time"

// Clock abstracts the time source so the resolvers can be tested with a
// pinned timestamp.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real system time.
var SystemClock Clock = systemClock{}
