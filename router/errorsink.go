package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	clickerrors "github.com/abhishen/click/errors"
	"github.com/abhishen/click/pkg/retry"
	"github.com/nats-io/nats.go"
)

// ErrorEntry is a structured error report, publishable to NATS for
// real-time collection the same way the router's ambient logs are.
type ErrorEntry struct {
	Timestamp string `json:"timestamp"`
	Element   string `json:"element,omitempty"`
	Message   string `json:"message"`
}

// NATSErrorSink is the element.ErrorHandler a Router is normally built
// with: it logs every reported error locally via slog and, when nc is
// non-nil, additionally publishes it to a NATS subject for external
// collection. nc may be nil, in which case only local logging happens.
type NATSErrorSink struct {
	subject string
	nc      *nats.Conn
	logger  *slog.Logger
}

// NewNATSErrorSink builds a sink that logs through logger and publishes
// to subject on nc. Either nc or logger may be nil.
func NewNATSErrorSink(subject string, nc *nats.Conn, logger *slog.Logger) *NATSErrorSink {
	return &NATSErrorSink{subject: subject, nc: nc, logger: logger}
}

func (s *NATSErrorSink) Error(err error) {
	if err == nil {
		return
	}
	s.report(err.Error())
}

func (s *NATSErrorSink) Errorf(format string, args ...any) {
	s.report(fmt.Sprintf(format, args...))
}

func (s *NATSErrorSink) report(message string) {
	if s.logger != nil {
		s.logger.Error(message, "component", "router")
	}
	if s.nc == nil {
		return
	}

	entry := ErrorEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Message:   message,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to marshal router error entry", "error", err)
		}
		return
	}

	// A dropped NATS publish would silently lose an error report, so retry
	// a handful of times with backoff before giving up; the conversion
	// from the classification package's RetryConfig keeps the backoff
	// shape consistent with the rest of the error-handling stack.
	retryCfg := clickerrors.DefaultRetryConfig().ToRetryConfig()
	err = retry.Do(context.Background(), retryCfg, func() error {
		return s.nc.Publish(s.subject, data)
	})
	if err != nil && s.logger != nil {
		s.logger.Error("failed to publish router error entry", "error", err, "subject", s.subject)
	}
}
