package extract

import (
	"lucidaflow/pkg/logger"
)

// Strategy turns a page into tracks. An error means the strategy could not
// read the page at all; an empty slice means it read it and found nothing.
type Strategy interface {
	Name() string
	Extract(doc []byte) ([]Track, error)
}

// Extractor runs strategies in priority order and returns the first non-empty result
type Extractor struct {
	strategies []Strategy
	logger     logger.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger used for strategy fall-through notices
func WithLogger(log logger.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithStrategies replaces the default strategy chain
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// New creates an extractor that tries the embedded JSON first and the DOM second.
// baseURL is used to make DOM links absolute.
func New(baseURL string, opts ...Option) *Extractor {
	e := &Extractor{
		strategies: []Strategy{NewEmbeddedJSON(), NewDOM(baseURL)},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.GetLogger()
	}
	return e
}

// Extract never fails: unreadable input just yields no tracks.
// Tracks without a name are discarded.
func (e *Extractor) Extract(doc []byte) []Track {
	for _, s := range e.strategies {
		tracks, err := s.Extract(doc)
		if err != nil {
			e.logger.WithError(err).WithField("strategy", s.Name()).Debug("Extraction strategy failed")
			continue
		}

		tracks = keepNamed(tracks)
		if len(tracks) > 0 {
			e.logger.DebugWithFields("Extracted tracks", map[string]interface{}{
				"strategy": s.Name(),
				"count":    len(tracks),
			})
			return tracks
		}
	}
	return []Track{}
}
