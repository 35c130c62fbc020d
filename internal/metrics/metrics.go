// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuessesTotal counts persisted guess increments per puzzle.
	GuessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advent_guesses_total",
		Help: "Guess counter increments by puzzle",
	}, []string{"puzzle"})

	// CompletionsTotal counts completion writes per puzzle, including repeats.
	CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advent_completions_total",
		Help: "Completion flag writes by puzzle",
	}, []string{"puzzle"})

	// StorageErrorsTotal counts degraded storage operations.
	StorageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advent_storage_errors_total",
		Help: "Storage failures absorbed by the progression engine, by operation",
	}, []string{"op"})

	// SubmissionsTotal counts submissions by puzzle and outcome.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advent_submissions_total",
		Help: "Answer submissions by puzzle and result",
	}, []string{"puzzle", "result"})

	// Subscribers tracks live progression event subscriptions.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "advent_event_subscribers",
		Help: "Open progression event subscriptions",
	})
)

// Puzzle renders an ordinal as a label value.
func Puzzle(o int) string { return strconv.Itoa(o) }
