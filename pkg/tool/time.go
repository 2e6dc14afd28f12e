package tool

import "time"

// NsToSeconds переводит метку времени в наносекундах в секунды
func NsToSeconds(ns int64) float64 {
	return float64(ns) / float64(time.Second)
}

// SecondsToNs переводит секунды в метку времени в наносекундах
func SecondsToNs(s float64) int64 {
	return int64(s * float64(time.Second))
}
