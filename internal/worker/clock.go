package worker

import "time"

// Clock supplies the "now" snapshot used for a whole scheduler cycle.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
