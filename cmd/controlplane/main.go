// Command controlplane runs the Control Plane gRPC server: process roster,
// chain construction, and the detach/restore machinery.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"chainkv/internal/config"
	"chainkv/internal/control"
	"chainkv/internal/logutil"
	"chainkv/internal/rpcapi"
	"chainkv/internal/rpcserver"
	"chainkv/internal/telemetry"
)

var (
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "address to listen on for Process and Node RPCs",
		Value: ":7000",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "bounded worker-pool size for incoming RPCs",
		Value: config.DefaultControlWorkers,
	}
	metricsFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "address to serve Prometheus metrics on (empty disables)",
		Value: ":9090",
	}
	otlpFlag = &cli.StringFlag{
		Name:  "otlp.endpoint",
		Usage: "OTLP/gRPC trace collector endpoint (empty disables tracing)",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "optional TOML overlay file",
	}
)

func main() {
	app := &cli.App{
		Name:  "controlplane",
		Usage: "chainkv Control Plane",
		Flags: []cli.Flag{listenFlag, workersFlag, metricsFlag, otlpFlag, configFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	logger := logutil.New("controlplane")

	overlay, err := config.LoadOverlay(cliCtx.String(configFlag.Name))
	if err != nil {
		return err
	}
	workers := cliCtx.Int(workersFlag.Name)
	if overlay.ControlWorkers > 0 {
		workers = overlay.ControlWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, cliCtx.String(otlpFlag.Name))
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer tp.Shutdown(ctx)

	lis, err := net.Listen("tcp", cliCtx.String(listenFlag.Name))
	if err != nil {
		return fmt.Errorf("listen %s: %w", cliCtx.String(listenFlag.Name), err)
	}

	plane := control.New(control.GRPCDialer{}, logger)
	server := rpcserver.New(workers, logger)
	rpcapi.RegisterControlPlaneServer(server, plane)

	if addr := cliCtx.String(metricsFlag.Name); addr != "" {
		reg := prometheus.NewRegistry()
		go func() {
			if err := http.ListenAndServe(addr, telemetry.DebugServer(reg)); err != nil {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		server.GracefulStop()
	}()

	logger.Info("control plane listening", "addr", lis.Addr().String(), "workers", workers)
	return server.Serve(lis)
}
