package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

var (
	// ErrDependencyFailed marks an item that was never dispatched because an item it depends on failed.
	ErrDependencyFailed = goerrors.New("dependency failed")
	// ErrNotAdmissible marks an item the admission predicate rejected with nothing left in flight.
	ErrNotAdmissible = goerrors.New("item never became admissible")
	// ErrAbandoned marks a pending item dropped when the run stopped taking work.
	ErrAbandoned = goerrors.New("abandoned after the run stopped")
)

type ResourceNotFoundError struct {
	resource string
	id       string
}

func NewResourceNotFoundError(resource, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{resource: resource, id: id}
}

func NewRunNotFoundError(id string) *ResourceNotFoundError {
	return NewResourceNotFoundError("run", id)
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.resource, e.id)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return goerrors.As(err, &e)
}

// PathNotEmptyError is returned when a dataset would be created on top of existing content.
type PathNotEmptyError struct {
	Path string
}

func NewPathNotEmptyError(path string) *PathNotEmptyError {
	return &PathNotEmptyError{Path: path}
}

func (e *PathNotEmptyError) Error() string {
	return fmt.Sprintf("path not empty, not creating new dataset: %s", e.Path)
}

func IsPathNotEmptyError(err error) bool {
	var e *PathNotEmptyError
	return goerrors.As(err, &e)
}

// ProducerError wraps a failure of the item stream itself.
type ProducerError struct {
	err error
}

func NewProducerError(err error) *ProducerError {
	return &ProducerError{err: err}
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("producer failed: %v", e.err)
}

func (e *ProducerError) Unwrap() error {
	return e.err
}

func IsProducerError(err error) bool {
	var e *ProducerError
	return goerrors.As(err, &e)
}

// ItemFailure is the captured error of a single item's consumption.
type ItemFailure struct {
	// Index is the position of the item in producer order.
	Index int
	Item  any
	// Name identifies the item in messages, usually its path.
	Name string
	Err  error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}

func (f ItemFailure) Unwrap() error {
	return f.Err
}

// IncompleteResultsError ends a run in which at least one item failed or the
// producer broke down. Failures are ordered by item index.
type IncompleteResultsError struct {
	Cause    error
	Failures []ItemFailure
}

func NewIncompleteResultsError(cause error, failures []ItemFailure) *IncompleteResultsError {
	return &IncompleteResultsError{Cause: cause, Failures: failures}
}

func (e *IncompleteResultsError) Error() string {
	var sb strings.Builder
	if e.Cause != nil {
		sb.WriteString(e.Cause.Error())
		if len(e.Failures) > 0 {
			sb.WriteString("; ")
		}
	}
	if len(e.Failures) > 0 {
		fmt.Fprintf(&sb, "%d item(s) failed: ", len(e.Failures))
		for i, f := range e.Failures {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(f.Error())
		}
	}
	if sb.Len() == 0 {
		return "incomplete results"
	}
	return sb.String()
}

func (e *IncompleteResultsError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Failed returns the names of all failed items.
func (e *IncompleteResultsError) Failed() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Name)
	}
	return names
}

func IsIncompleteResultsError(err error) bool {
	var e *IncompleteResultsError
	return goerrors.As(err, &e)
}

// AsIncompleteResultsError extracts the aggregate failure from err, if any.
func AsIncompleteResultsError(err error) (*IncompleteResultsError, bool) {
	var e *IncompleteResultsError
	ok := goerrors.As(err, &e)
	return e, ok
}
