package v1

import "time"

type Run struct {
	Id         string     `json:"id"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Jobs       int        `json:"jobs"`
	Ordered    bool       `json:"ordered"`
	State      string     `json:"state"`
	Total      int        `json:"total"`
	Failed     int        `json:"failed"`
}

type RunListResponse struct {
	Runs []Run `json:"runs"`
}

type Result struct {
	Seq     int    `json:"seq"`
	Action  string `json:"action"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Refds   string `json:"refds,omitempty"`
}

type ResultListResponse struct {
	Page      int      `json:"page"`
	PageCount int      `json:"pageCount"`
	Total     int      `json:"total"`
	Results   []Result `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Zero values mean "not set".
type ListRunsParams struct {
	State []string `form:"state"`
	Limit int      `form:"limit"`
}

type ListRunResultsParams struct {
	Status   []string `form:"status"`
	Page     int      `form:"page"`
	PageSize int      `form:"pageSize"`
}
