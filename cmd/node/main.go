// Command node runs a Node Supervisor: it reads CONTROL_PANEL_IP and
// Node<index>_IP from the environment, then drives an interactive operator
// shell for Local-store-ps, Create-chain, and the rest of the client command
// set.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"chainkv/internal/config"
	"chainkv/internal/logutil"
	"chainkv/internal/node"
	"chainkv/internal/telemetry"
)

var (
	nameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "this node's name, used as a prefix for its Process names",
		Value: "Node0",
	}
	indexFlag = &cli.IntFlag{
		Name:  "index",
		Usage: "this node's index, selects its Node<index>_IP environment variable",
		Value: 0,
	}
	processWorkersFlag = &cli.IntFlag{
		Name:  "process-workers",
		Usage: "bounded worker-pool size for each local Process's RPCs",
		Value: config.DefaultProcessWorkers,
	}
	nodeMetricsFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "address to serve Prometheus metrics on (empty disables)",
		Value: ":9091",
	}
	nodeOTLPFlag = &cli.StringFlag{
		Name:  "otlp.endpoint",
		Usage: "OTLP/gRPC trace collector endpoint (empty disables tracing)",
	}
	nodeConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "optional TOML overlay file",
	}
)

var app = &cli.App{
	Name:   "node",
	Usage:  "chainkv Node Supervisor",
	Flags:  []cli.Flag{nameFlag, indexFlag, processWorkersFlag, nodeMetricsFlag, nodeOTLPFlag, nodeConfigFlag},
	Action: run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	logger := logutil.New(cliCtx.String(nameFlag.Name))

	overlay, err := config.LoadOverlay(cliCtx.String(nodeConfigFlag.Name))
	if err != nil {
		return err
	}
	processWorkers := cliCtx.Int(processWorkersFlag.Name)
	if overlay.ProcessWorkers > 0 {
		processWorkers = overlay.ProcessWorkers
	}

	ctx := context.Background()
	tp, err := telemetry.InitTracerProvider(ctx, cliCtx.String(nodeOTLPFlag.Name))
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer tp.Shutdown(ctx)

	reg := prometheus.NewRegistry()
	if addr := cliCtx.String(nodeMetricsFlag.Name); addr != "" {
		go func() {
			if err := http.ListenAndServe(addr, telemetry.DebugServer(reg)); err != nil {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
	}

	env := config.NewEnv()
	n, err := node.New(cliCtx.String(nameFlag.Name), env, cliCtx.Int(indexFlag.Name), processWorkers, reg, logger)
	if err != nil {
		return fmt.Errorf("new node: %w", err)
	}

	shell := node.NewShell(n)
	defer shell.Close()
	shell.Run(ctx)
	return nil
}
