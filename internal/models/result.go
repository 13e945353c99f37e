package models

import "fmt"

type ResultStatus string

const (
	StatusOK         ResultStatus = "ok"
	StatusNotNeeded  ResultStatus = "notneeded"
	StatusImpossible ResultStatus = "impossible"
	StatusError      ResultStatus = "error"
)

func ParseResultStatus(s string) (ResultStatus, error) {
	switch s {
	case "ok":
		return StatusOK, nil
	case "notneeded":
		return StatusNotNeeded, nil
	case "impossible":
		return StatusImpossible, nil
	case "error":
		return StatusError, nil
	default:
		return "", fmt.Errorf("invalid result status: %s", s)
	}
}

// Failed reports whether the status marks a failed operation.
func (s ResultStatus) Failed() bool {
	return s == StatusImpossible || s == StatusError
}

const (
	ActionCreate   = "create"
	ActionRegister = "register"

	TypeDataset = "dataset"
)

// Result is one record reported by a dataset operation.
type Result struct {
	Action  string
	Path    string
	Type    string
	Status  ResultStatus
	Message string
	// RefDS is the dataset the operation was run against. For a subdataset
	// registration it is the superdataset.
	RefDS string
}
