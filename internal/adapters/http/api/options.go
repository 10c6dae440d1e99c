package api

import (
	"github.com/okian/gradecurve/internal/adapters/table"
	"github.com/okian/gradecurve/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithLoader sets the table loader used for uploaded files.
func WithLoader(l *table.Loader) Option {
	return func(s *Server) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithAuthSecret enables HS256 bearer authentication on the grading routes.
// An empty secret leaves them open.
func WithAuthSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.auth = NewAuthenticator(secret)
		}
	}
}

// WithMaxUploadBytes caps request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithLogger sets the request error logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}
