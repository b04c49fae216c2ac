package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/config"
	"github.com/alnah/go-contentflow/internal/interrupt"
	"github.com/alnah/go-contentflow/internal/server"
)

// ServeCmd creates the serve command.
func ServeCmd(env *Env) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  POST   /api/generate        stream one document as server-sent events
  POST   /api/recycle         recycle content into platform formats
  GET    /api/recycle         describe the recycling endpoint
  GET    /api/costs/today     today's cost summary and alert
  GET    /api/costs/:date     cost summary for YYYY-MM-DD
  DELETE /api/costs/today     reset today's costs
  GET    /health              liveness
  GET    /metrics             Prometheus metrics

The first Ctrl+C drains in-flight requests; a second one forces exit.`,
		Example: `  contentflow serve
  contentflow serve --port 9090
  CONTENTFLOW_APP_ENV=development contentflow serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ctx := interrupt.NewHandler(cmd.Context())
			defer h.Stop()
			return runServe(ctx, env, host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from server.port)")

	return cmd
}

// runServe serves until ctx is canceled.
func runServe(ctx context.Context, env *Env, host string, port int) error {
	a, err := setup(ctx, env, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.App.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if host == "" {
		host = a.cfg.Server.Host
	}
	if port == 0 {
		port = a.cfg.Server.Port
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	srv := server.New(a.generator(), a.recycler(),
		server.WithLedger(a.ledger),
		server.WithLogger(a.log),
		server.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		server.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.ShutdownTimeout))

	a.log.Info("starting server",
		zap.String("addr", addr),
		zap.String("env", a.cfg.App.Env),
		zap.String("model", a.client.Model()))
	fmt.Fprintf(env.Stderr, "Listening on http://%s (Ctrl+C to stop)\n", addr)

	return srv.ListenAndServe(ctx, addr)
}
