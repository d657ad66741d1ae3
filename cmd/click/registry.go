package main

import (
	"fmt"

	"github.com/abhishen/click/element"
	"github.com/abhishen/click/elements/standard"
	"github.com/abhishen/click/router"
)

// classFactory builds a fresh, unconfigured Hooks value for one element
// class. Each call must return a distinct instance — Finalize attaches
// one Element per pending hooks value.
type classFactory func() element.Hooks

// classRegistry maps the "class" field of a graph config entry to a
// factory for that element type, in the spirit of a component registry
// that maps names to constructors.
type classRegistry map[string]classFactory

// newClassRegistry builds the registry available to a loaded graph. tasks
// is the router's single TaskEngine: ActiveSource self-schedules onto it
// at Initialize, and TaskPriority adjusts a sibling's scheduling weight,
// both narrowed to the standard package's own interfaces so it doesn't
// have to import router directly.
func newClassRegistry(tasks *router.TaskEngine) classRegistry {
	return classRegistry{
		"RandomSwitch": func() element.Hooks { return &standard.RandomSwitch{} },
		"TaskPriority": func() element.Hooks { return &standard.TaskPriority{Engine: tasks} },
		"ActiveSource": func() element.Hooks { return &standard.ActiveSource{Engine: tasks} },
	}
}

func (r classRegistry) build(class string) (element.Hooks, error) {
	factory, ok := r[class]
	if !ok {
		return nil, fmt.Errorf("unknown element class %q", class)
	}
	return factory(), nil
}
