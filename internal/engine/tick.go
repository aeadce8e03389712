// Package engine runs the day-stepped awareness simulation.
package engine

import (
	"log/slog"
)

// DaysPerWeek sets how often OnWeek fires.
const DaysPerWeek = 7

// Engine drives a simulation forward one day at a time.
type Engine struct {
	Day int // Last day completed; days are numbered from 1

	// Callbacks for each layer, populated during setup.
	OnDay  func(day int) // Every day
	OnWeek func(day int) // Every DaysPerWeek days
}

// NewEngine creates an engine positioned before day 1.
func NewEngine() *Engine {
	return &Engine{}
}

// RunDays advances the engine by n days. It never blocks or sleeps; the day
// count is the only termination control.
func (e *Engine) RunDays(n int) {
	slog.Debug("engine started", "from_day", e.Day+1, "days", n)
	for i := 0; i < n; i++ {
		e.step()
	}
	slog.Debug("engine stopped", "day", e.Day)
}

// step advances the engine by one day.
func (e *Engine) step() {
	e.Day++

	if e.OnDay != nil {
		e.OnDay(e.Day)
	}

	if e.Day%DaysPerWeek == 0 && e.OnWeek != nil {
		e.OnWeek(e.Day)
	}
}
