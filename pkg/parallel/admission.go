package parallel

import (
	"path/filepath"
	"strings"
)

// Admission decides whether candidate may be dispatched while inFlight items
// are being consumed. Implementations must be pure and cheap.
type Admission[T any] interface {
	Admissible(candidate T, inFlight []T) bool
}

type AdmissionFunc[T any] func(candidate T, inFlight []T) bool

func (f AdmissionFunc[T]) Admissible(candidate T, inFlight []T) bool {
	return f(candidate, inFlight)
}

// Unconstrained admits everything: plain bounded parallelism.
func Unconstrained[T any]() Admission[T] {
	return AdmissionFunc[T](func(T, []T) bool { return true })
}

// NoParentInFlight rejects an item while any strict ancestor path of it is in flight,
// so children are only processed once their parent has been materialized.
func NoParentInFlight[T any](pathOf func(T) string) Admission[T] {
	return AdmissionFunc[T](func(candidate T, inFlight []T) bool {
		p := pathOf(candidate)
		for _, f := range inFlight {
			if IsSubpath(p, pathOf(f)) {
				return false
			}
		}
		return true
	})
}

// NoSubpathInFlight rejects an item while any path below it is in flight,
// for operations that must run bottom-up.
func NoSubpathInFlight[T any](pathOf func(T) string) Admission[T] {
	return AdmissionFunc[T](func(candidate T, inFlight []T) bool {
		p := pathOf(candidate)
		for _, f := range inFlight {
			if IsSubpath(pathOf(f), p) {
				return false
			}
		}
		return true
	})
}

// Paths is NoParentInFlight for plain path strings.
func Paths() Admission[string] {
	return NoParentInFlight(func(p string) string { return p })
}

// IsSubpath reports whether path lies strictly below parent.
// Relative and absolute paths never contain each other.
func IsSubpath(path, parent string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
