package repository

import (
	"github.com/okian/rankengine/pkg/logger"
)

const defaultMaxOpenConns = 8

type settings struct {
	maxOpenConns int
	logger       logger.Logger
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithMaxOpenConns bounds the SQL connection pool. SQLite always uses one
// connection.
func WithMaxOpenConns(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{maxOpenConns: defaultMaxOpenConns}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}
	return s
}
