package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	v1 "github.com/ypid/datalad/api/v1"
	"github.com/ypid/datalad/internal/models"
	"github.com/ypid/datalad/internal/services"
	"github.com/ypid/datalad/internal/util"
	srvErrors "github.com/ypid/datalad/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 1 << 20 // keeps (page-1)*pageSize from overflowing
	maxRuns         = 100
)

var runStates = []string{
	string(models.RunStateRunning),
	string(models.RunStateDone),
	string(models.RunStateFailed),
}

var resultStatuses = []string{
	string(models.StatusOK),
	string(models.StatusNotNeeded),
	string(models.StatusImpossible),
	string(models.StatusError),
}

// ListRuns returns recorded runs, most recent first
// (GET /runs)
func (h *Handler) ListRuns(c *gin.Context, params v1.ListRunsParams) {
	for _, s := range params.State {
		if !util.Contains(runStates, s) {
			c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid state: " + s})
			return
		}
	}

	limit := maxRuns
	if params.Limit > 0 && params.Limit < maxRuns {
		limit = params.Limit
	}

	runs, err := h.runSrv.List(c.Request.Context(), services.RunListParams{
		States: params.State,
		Limit:  uint64(limit),
	})
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, v1.ErrorResponse{Error: "failed to list runs"})
		return
	}

	apiRuns := make([]v1.Run, 0, len(runs))
	for _, r := range runs {
		apiRuns = append(apiRuns, v1.NewRunFromModel(r))
	}
	c.JSON(http.StatusOK, v1.RunListResponse{Runs: apiRuns})
}

// GetRun returns a single run
// (GET /runs/{id})
func (h *Handler) GetRun(c *gin.Context, id uuid.UUID) {
	run, err := h.runSrv.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to get run")
		return
	}
	c.JSON(http.StatusOK, v1.NewRunFromModel(*run))
}

// ListRunResults returns the results of a run with filtering and pagination
// (GET /runs/{id}/results)
func (h *Handler) ListRunResults(c *gin.Context, id uuid.UUID, params v1.ListRunResultsParams) {
	for _, s := range params.Status {
		if !util.Contains(resultStatuses, s) {
			c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid status: " + s})
			return
		}
	}

	page := 1
	if params.Page > 0 {
		page = min(params.Page, maxPage)
	}
	pageSize := defaultPageSize
	if params.PageSize > 0 {
		pageSize = min(params.PageSize, maxPageSize)
	}

	result, err := h.runSrv.Results(c.Request.Context(), id, services.ResultListParams{
		Statuses: params.Status,
		Limit:    uint64(pageSize),
		Offset:   uint64((page - 1) * pageSize),
	})
	if err != nil {
		h.fail(c, err, "failed to list results")
		return
	}

	pageCount := (result.Total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	apiResults := make([]v1.Result, 0, len(result.Results))
	for _, r := range result.Results {
		apiResults = append(apiResults, v1.NewResultFromModel(r))
	}

	c.JSON(http.StatusOK, v1.ResultListResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     result.Total,
		Results:   apiResults,
	})
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if srvErrors.IsResourceNotFoundError(err) {
		c.JSON(http.StatusNotFound, v1.ErrorResponse{Error: err.Error()})
		return
	}
	zap.S().Named("run_handler").Errorw(msg, "error", err)
	c.JSON(http.StatusInternalServerError, v1.ErrorResponse{Error: msg})
}
