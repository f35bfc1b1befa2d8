package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calbridge/internal/instrumentation"
	"github.com/teemow/calbridge/internal/tools/booking_tools"
)

func newMCPCmd(loadConfig configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the booking tools over MCP stdio",
		Long: `Start a Model Context Protocol server on standard input/output exposing
the check_availability and book_appointment tools.

Logs go to stderr; stdout carries the protocol only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, loadConfig)
		},
	}
}

func runMCP(cmd *cobra.Command, loadConfig configLoader) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	instrCfg := instrumentationConfig()
	if instrCfg.MetricsExporter == instrumentation.ExporterStdout || instrCfg.TracingExporter == instrumentation.ExporterStdout {
		return errors.New("stdout exporters cannot be used with the stdio transport")
	}

	a, err := newApp(ctx, cfg, logger, instrCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("error during shutdown", slog.Any("error", err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("calbridge", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := booking_tools.RegisterBookingTools(mcpSrv, a.dispatcher, a.provider.Metrics(), logger); err != nil {
		return fmt.Errorf("failed to register booking tools: %w", err)
	}

	return runStdioServer(mcpSrv)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
