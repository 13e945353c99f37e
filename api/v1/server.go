package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServerInterface is implemented by the HTTP handlers.
type ServerInterface interface {
	// (GET /runs)
	ListRuns(c *gin.Context, params ListRunsParams)
	// (GET /runs/{id})
	GetRun(c *gin.Context, id uuid.UUID)
	// (GET /runs/{id}/results)
	ListRunResults(c *gin.Context, id uuid.UUID, params ListRunResultsParams)
}

type wrapper struct {
	handler ServerInterface
}

func (w *wrapper) ListRuns(c *gin.Context) {
	var params ListRunsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query: " + err.Error()})
		return
	}
	w.handler.ListRuns(c, params)
}

func (w *wrapper) GetRun(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	w.handler.GetRun(c, id)
}

func (w *wrapper) ListRunResults(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var params ListRunResultsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query: " + err.Error()})
		return
	}
	w.handler.ListRunResults(c, id, params)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid run id: " + c.Param("id")})
		return uuid.UUID{}, false
	}
	return id, true
}

// RegisterHandlers mounts the API routes of si on router.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	w := &wrapper{handler: si}
	router.GET("/runs", w.ListRuns)
	router.GET("/runs/:id", w.GetRun)
	router.GET("/runs/:id/results", w.ListRunResults)
}
