package element

import "fmt"

// ErrorHandler is the error-reporting collaborator passed to Configure,
// Initialize, and the other lifecycle hooks. Implementations decide where
// reported errors go — a router forwards them to whatever ErrorReporter it
// was built with (see router.NATSErrorSink); tests typically use
// CollectingErrorHandler.
type ErrorHandler interface {
	Error(err error)
	Errorf(format string, args ...any)
}

// CollectingErrorHandler accumulates every reported error in order. It is
// the default ErrorHandler for standalone element construction and for
// tests that want to assert on exactly what was reported.
type CollectingErrorHandler struct {
	errs []error
}

func (h *CollectingErrorHandler) Error(err error) {
	if err != nil {
		h.errs = append(h.errs, err)
	}
}

func (h *CollectingErrorHandler) Errorf(format string, args ...any) {
	h.errs = append(h.errs, fmt.Errorf(format, args...))
}

// Errors returns every error reported so far, in report order.
func (h *CollectingErrorHandler) Errors() []error { return h.errs }

// OK reports whether no error has been collected.
func (h *CollectingErrorHandler) OK() bool { return len(h.errs) == 0 }
