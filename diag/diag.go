// Package diag is the diagnostic sink described in spec §7: a place
// warnings (suppressed class-not-found, unknown top-level keys) land without
// aborting the render that produced them. No default-substitution warnings
// are raised, and verbose_warnings does not change what is recorded or
// logged.
//
// Grounded on the teacher's *slog.Logger threaded through
// index/rolodex_file_loader.go: every warning is both logged through slog
// and appended to an in-memory slice so a caller can inspect what happened
// without scraping logs.
package diag

import (
	"log/slog"
	"sync"
)

// Warning is one non-fatal event raised during a render.
type Warning struct {
	Node    string
	Class   string
	Path    string
	Message string
}

// Sink collects warnings for one render call and forwards them to a logger.
type Sink struct {
	logger *slog.Logger

	mu       sync.Mutex
	warnings []Warning
}

// NewSink returns a Sink. A nil logger falls back to slog.Default().
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Warn records w, safe for concurrent use across node workers (spec §5).
func (s *Sink) Warn(w Warning) {
	s.mu.Lock()
	s.warnings = append(s.warnings, w)
	s.mu.Unlock()

	s.logger.Warn(w.Message,
		"node", w.Node,
		"class", w.Class,
		"path", w.Path,
	)
}

// Warnings returns every warning recorded so far, in recording order.
func (s *Sink) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}
