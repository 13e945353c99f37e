package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	v1 "github.com/ypid/datalad/api/v1"
	"github.com/ypid/datalad/internal/handlers"
	"github.com/ypid/datalad/internal/server"
	"github.com/ypid/datalad/internal/services"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := handlers.New(services.NewRunService(a.store))

			srv, err := server.NewServer(a.cfg, func(router *gin.RouterGroup) {
				v1.RegisterHandlers(router, handler)
			})
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.Int("http-port", a.cfg.Server.HTTPPort, "HTTP listen port")
	flags.String("server-mode", a.cfg.Server.ServerMode, "Server mode: dev or prod")
	a.bind("server.http_port", flags.Lookup("http-port"))
	a.bind("server.server_mode", flags.Lookup("server-mode"))

	return cmd
}
