package handlers

import (
	"github.com/ypid/datalad/internal/services"
)

type Handler struct {
	runSrv *services.RunService
}

func New(runSrv *services.RunService) *Handler {
	return &Handler{
		runSrv: runSrv,
	}
}
