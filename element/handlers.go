package element

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhishen/click/config"
	clickerrors "github.com/abhishen/click/errors"
)

// ReadFunc produces a handler's textual value on demand.
type ReadFunc func(e *Element) (string, error)

// WriteFunc applies a textual value written to a handler, reporting any
// failure through errh as well as via its return value.
type WriteFunc func(e *Element, value string, errh ErrorHandler) error

// Handler is a single named, readable and/or writable control-plane
// endpoint an element exposes, analogous to a Click handler file. Read and
// Write are nil when the handler does not support that direction.
type Handler struct {
	Name  string
	Read  ReadFunc
	Write WriteFunc
	core  bool // true for class/name/config/ports/handlers/icounts/ocounts/cycles/task-bound
}

// rwFlags renders the "r"/"w"/"rw" tag the stock "handlers" handler lists
// next to a visible handler's name (element.cc's read_handlers_handler).
func (h *Handler) rwFlags() string {
	var b strings.Builder
	if h.Read != nil {
		b.WriteByte('r')
	}
	if h.Write != nil {
		b.WriteByte('w')
	}
	return b.String()
}

// AddReadHandler registers a read-only handler. It rejects a name already
// claimed by one of the core handlers (class, name, config, ports,
// handlers, icounts, ocounts, cycles, or a bound task prefix) to keep
// those names predictable across every element.
func (e *Element) AddReadHandler(name string, fn ReadFunc) error {
	return e.addHandler(name, fn, nil)
}

// AddWriteHandler registers a write-only handler.
func (e *Element) AddWriteHandler(name string, fn WriteFunc) error {
	return e.addHandler(name, nil, fn)
}

// AddReadWriteHandler registers a handler supporting both directions.
func (e *Element) AddReadWriteHandler(name string, read ReadFunc, write WriteFunc) error {
	return e.addHandler(name, read, write)
}

func (e *Element) addHandler(name string, read ReadFunc, write WriteFunc) error {
	if existing, ok := e.handlers[name]; ok && existing.core {
		return clickerrors.WrapInvalid(clickerrors.ErrHandlerNameReserved, e.className(), "AddHandler", name)
	}
	h := &Handler{Name: name}
	if existing, ok := e.handlers[name]; ok {
		h.Read, h.Write = existing.Read, existing.Write
	}
	if read != nil {
		h.Read = read
	}
	if write != nil {
		h.Write = write
	}
	e.handlers[name] = h
	return nil
}

// Handler returns the named handler, or nil if no such handler exists.
func (e *Element) Handler(name string) *Handler {
	return e.handlers[name]
}

// HandlerNames returns every registered handler name, core and custom.
func (e *Element) HandlerNames() []string {
	names := make([]string, 0, len(e.handlers))
	for n := range e.handlers {
		names = append(names, n)
	}
	return names
}

// ReadHandler invokes the named handler's read side.
func (e *Element) ReadHandler(name string) (string, error) {
	h := e.Handler(name)
	if h == nil || h.Read == nil {
		return "", clickerrors.WrapInvalid(clickerrors.ErrHandlerAbsent, e.className(), "ReadHandler", name)
	}
	if e.metrics != nil {
		e.metrics.RecordHandlerInvoke(name, "read")
	}
	return h.Read(e)
}

// WriteHandler invokes the named handler's write side.
func (e *Element) WriteHandler(name, value string, errh ErrorHandler) error {
	h := e.Handler(name)
	if h == nil || h.Write == nil {
		return clickerrors.WrapInvalid(clickerrors.ErrHandlerAbsent, e.className(), "WriteHandler", name)
	}
	if e.metrics != nil {
		e.metrics.RecordHandlerInvoke(name, "write")
	}
	return h.Write(e, value, errh)
}

func (e *Element) addCore(h *Handler) {
	h.core = true
	e.handlers[h.Name] = h
}

// addCoreHandlers installs the handlers every element gets for free:
// class, name, config (read, and write when the element supports live
// reconfiguration), ports/handlers introspection, and per-port/per-call
// statistics (spec §4.6; element.cc's add_default_handlers).
func (e *Element) addCoreHandlers() {
	e.addCore(&Handler{
		Name: "class",
		Read: func(e *Element) (string, error) { return e.className(), nil },
	})

	e.addCore(&Handler{
		Name: "name",
		Read: func(e *Element) (string, error) { return e.Name(), nil },
	})

	e.addCore(&Handler{
		Name: "config",
		Read: func(e *Element) (string, error) { return e.configString, nil },
		Write: func(e *Element, value string, errh ErrorHandler) error {
			if !e.CanLiveReconfigure() {
				return clickerrors.ErrLiveReconfigureRejected
			}
			return e.LiveReconfigure(config.Split(value), errh)
		},
	})

	e.addCore(&Handler{
		Name: "ports",
		Read: func(e *Element) (string, error) {
			var b strings.Builder
			fmt.Fprintf(&b, "%d input, %d output\n", e.NInputs(), e.NOutputs())
			for i, d := range e.inDisciplines {
				fmt.Fprintf(&b, "in%d: %s\n", i, d)
			}
			for i, d := range e.outDisciplines {
				fmt.Fprintf(&b, "out%d: %s\n", i, d)
			}
			return b.String(), nil
		},
	})

	e.addCore(&Handler{
		Name: "handlers",
		Read: func(e *Element) (string, error) {
			names := e.HandlerNames()
			sortedStrings(names)
			var b strings.Builder
			for _, n := range names {
				h := e.handlers[n]
				if h.Read == nil && h.Write == nil {
					continue
				}
				fmt.Fprintf(&b, "%s\t%s\n", n, h.rwFlags())
			}
			return b.String(), nil
		},
	})

	e.addCore(&Handler{
		Name: "icounts",
		Read: func(e *Element) (string, error) {
			var b strings.Builder
			for i := range e.inputs {
				fmt.Fprintf(&b, "%d\n", e.inputs[i].Packets())
			}
			return b.String(), nil
		},
	})

	e.addCore(&Handler{
		Name: "ocounts",
		Read: func(e *Element) (string, error) {
			var b strings.Builder
			for i := range e.outputs {
				fmt.Fprintf(&b, "%d\n", e.outputs[i].Packets())
			}
			return b.String(), nil
		},
	})

	e.addCore(&Handler{
		Name: "cycles",
		Read: func(e *Element) (string, error) {
			return fmt.Sprintf("%d\n", e.Calls()), nil
		},
	})
}

// sortedStrings sorts names in place; a tiny local helper rather than
// pulling in sort.Strings at its call site.
func sortedStrings(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// Configuration returns the element's current configuration arguments.
// The default splits the router's stored configuration string
// (config.Split(e.configString)); SetConfigurationFunc installs an
// override for elements whose live state has drifted from that string,
// the Go analogue of overriding configuration(Vector<String>&) in
// element.cc (spec §4.6).
func (e *Element) Configuration() config.Args {
	if e.configFunc != nil {
		return e.configFunc(e)
	}
	return config.Split(e.configString)
}

// ConfigurationFunc computes an element's current configuration
// arguments from whatever live state the element tracks, standing in for
// a non-default configuration(Vector<String>&) override.
type ConfigurationFunc func(e *Element) config.Args

// SetConfigurationFunc installs a non-default Configuration() override.
func (e *Element) SetConfigurationFunc(fn ConfigurationFunc) {
	e.configFunc = fn
}

// IsDefaultConfiguration reports whether Configuration() is using the
// default string-splitting behavior rather than an installed override.
// This replaces element.cc's process-wide was_default_configuration flag
// (spec §5) with an explicit, stateless check: the flag only ever needs
// to know whether SetConfigurationFunc was called, which is per-instance
// information already on hand.
func (e *Element) IsDefaultConfiguration() bool {
	return e.configFunc == nil
}

// AddPositionalReadHandler registers a read-only handler returning the
// nth positional configuration argument, with a trailing newline added if
// the value is non-empty and doesn't already end in one (element.cc's
// read_positional_handler).
func (e *Element) AddPositionalReadHandler(name string, n int) error {
	return e.AddReadHandler(name, func(e *Element) (string, error) {
		v, _ := e.Configuration().Positional(n)
		return withTrailingNewline(v), nil
	})
}

// AddKeywordReadHandler registers a read-only handler returning the value
// bound to the named keyword argument, or the empty string if absent
// (element.cc's read_keyword_handler).
func (e *Element) AddKeywordReadHandler(name, keyword string) error {
	return e.AddReadHandler(name, func(e *Element) (string, error) {
		v, _ := e.Configuration().Keyword(keyword)
		return withTrailingNewline(v), nil
	})
}

// AddPositionalReconfigureHandler registers a write-only handler that
// fetches Configuration(), replaces its nth positional argument with the
// written value, and live-reconfigures with the result (element.cc's
// reconfigure_positional_handler / reconfigure_handler).
func (e *Element) AddPositionalReconfigureHandler(name string, n int) error {
	return e.AddWriteHandler(name, func(e *Element, value string, errh ErrorHandler) error {
		conf := e.Configuration().WithPositional(n, strings.TrimSpace(value))
		return e.LiveReconfigure(conf, errh)
	})
}

// AddKeywordReconfigureHandler registers a write-only handler that
// fetches Configuration(), replaces the named keyword argument with the
// written value, and live-reconfigures with the result. It refuses with
// ErrDefaultConfigurationOnly when the element relies on the default
// Configuration() (element.cc's reconfigure_keyword_handler would
// otherwise silently desynchronize the stored configuration string on
// every write). On success the stored configuration string is replaced
// with a sentinel marker rather than the joined arguments, since a
// keyword override is not generally invertible back into the original
// positional form.
func (e *Element) AddKeywordReconfigureHandler(name, keyword string) error {
	return e.AddWriteHandler(name, func(e *Element, value string, errh ErrorHandler) error {
		if e.IsDefaultConfiguration() {
			return clickerrors.ErrDefaultConfigurationOnly
		}
		conf := e.Configuration().WithKeyword(keyword, value)
		if err := e.LiveReconfigure(conf, errh); err != nil {
			return err
		}
		e.configString = "/* dynamically reconfigured */"
		return nil
	})
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// TaskHandle is the narrow view of a scheduled task the stock
// <prefix>scheduled/<prefix>tickets/<prefix>home_thread handlers need.
// element.cc binds these handlers to a Task field via a byte offset from
// the element instance (add_task_handlers); Go has no pointer-to-member
// idiom to replicate that, so AddTaskHandlers instead takes a closure
// that resolves the handle for a given *Element on each call.
type TaskHandle interface {
	Scheduled() bool
	Tickets() int
	SetTickets(int)
	HomeThread() int
}

// AddTaskHandlers registers the three task-bound handlers — scheduled,
// tickets (read/write), and home_thread — under the given prefix, each
// resolving its TaskHandle via handle on every call so the handlers stay
// correct even if the underlying task is replaced (spec §4.6, §6;
// original_source/lib/element.cc:1683-1717).
func (e *Element) AddTaskHandlers(prefix string, handle func(e *Element) TaskHandle) {
	e.addCore(&Handler{
		Name: prefix + "scheduled",
		Read: func(e *Element) (string, error) {
			t := handle(e)
			if t == nil {
				return "false\n", nil
			}
			return fmt.Sprintf("%t\n", t.Scheduled()), nil
		},
	})

	e.addCore(&Handler{
		Name: prefix + "tickets",
		Read: func(e *Element) (string, error) {
			t := handle(e)
			if t == nil {
				return "0\n", nil
			}
			return fmt.Sprintf("%d\n", t.Tickets()), nil
		},
		Write: func(e *Element, value string, errh ErrorHandler) error {
			t := handle(e)
			if t == nil {
				return clickerrors.ErrHandlerAbsent
			}
			tix, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				wrapped := clickerrors.WrapInvalid(clickerrors.ErrInvalidData, e.className(), prefix+"tickets",
					"tickets takes an integer")
				errh.Error(wrapped)
				return wrapped
			}
			if tix < 1 {
				errh.Errorf("tickets pinned at 1")
				tix = 1
			}
			t.SetTickets(tix)
			return nil
		},
	})

	e.addCore(&Handler{
		Name: prefix + "home_thread",
		Read: func(e *Element) (string, error) {
			t := handle(e)
			if t == nil {
				return "-1\n", nil
			}
			return fmt.Sprintf("%d\n", t.HomeThread()), nil
		},
	})
}
