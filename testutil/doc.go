// Package testutil provides reusable test doubles for the element,
// port, and router packages — a MockElement with configurable hook
// behavior and call counters, in the same spirit as a generic mock
// component used across a codebase's own test suites.
package testutil
