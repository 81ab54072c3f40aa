package services

import "time"

// Clock supplies the current time to services; tests pin it.
type Clock func() time.Time

func SystemClock() Clock { return time.Now }
