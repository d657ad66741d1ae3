package standard

import (
	"strconv"

	"github.com/abhishen/click/config"
	"github.com/abhishen/click/element"
	clickerrors "github.com/abhishen/click/errors"
)

// Tickets is the minimal view of a task scheduler TaskPriority needs:
// enough to read and adjust another element's scheduling weight without
// this package depending on the router package directly.
type Tickets interface {
	Tickets(name string) int
	SetTickets(name string, weight int)
}

// TaskPriority has no ports; it exists purely to expose a "priority"
// handler that adjusts a named sibling element's scheduling weight on a
// Tickets-compatible engine, in the spirit of schedulelinux.cc handing
// control of an element's scheduling back to an external policy.
type TaskPriority struct {
	element.Base

	Engine Tickets
	Target string
}

func (t *TaskPriority) ClassName() string  { return "TaskPriority" }
func (t *TaskPriority) PortCount() string  { return "0/0" }
func (t *TaskPriority) Processing() string { return "a/a" }

func (t *TaskPriority) Configure(args config.Args, errh element.ErrorHandler) error {
	target, ok := args.Positional(0)
	if !ok || target == "" {
		err := clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "TaskPriority", "Configure",
			"requires the target element's name as its first argument")
		errh.Error(err)
		return err
	}
	t.Target = target
	return nil
}

func (t *TaskPriority) CanLiveReconfigure() bool { return true }

func (t *TaskPriority) LiveReconfigure(args config.Args, errh element.ErrorHandler) error {
	return t.Configure(args, errh)
}

func (t *TaskPriority) AddHandlers(e *element.Element) {
	e.AddReadHandler("priority", func(e *element.Element) (string, error) {
		if t.Engine == nil || t.Target == "" {
			return "0", nil
		}
		return strconv.Itoa(t.Engine.Tickets(t.Target)), nil
	})
	e.AddWriteHandler("priority", func(e *element.Element, value string, errh element.ErrorHandler) error {
		if t.Engine == nil || t.Target == "" {
			return clickerrors.ErrHandlerAbsent
		}
		weight, err := strconv.Atoi(value)
		if err != nil {
			wrapped := clickerrors.WrapInvalid(clickerrors.ErrInvalidSpec, "TaskPriority", "priority", "not an integer")
			errh.Error(wrapped)
			return wrapped
		}
		t.Engine.SetTickets(t.Target, weight)
		return nil
	})
}
