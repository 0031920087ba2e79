package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/courtlistener/catalog"
	"github.com/jonwraymond/courtlistener/telemetry"
	"github.com/jonwraymond/courtlistener/tools"
)

// configAddr stands for the http.addr setting when --http has no value.
const configAddr = "config"

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the CourtListener tools over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tp, err := telemetry.NewTracerProvider(ctx, telemetry.TracingOptions{
				ServiceName: a.cfg.Server.Name,
				Endpoint:    a.cfg.Telemetry.OTLPEndpoint,
			})
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			idx := catalog.New(catalog.Config{})
			defer idx.Close()

			reg := tools.New(tools.Config{
				ServerInfo: tools.ServerInfo{Name: a.cfg.Server.Name, Version: a.cfg.Server.Version},
				Logger:     a.log,
				Metrics:    a.metrics,
			})
			svc, err := tools.NewService(c, idx)
			if err != nil {
				return err
			}
			if err := svc.Register(reg); err != nil {
				return err
			}

			if !cmd.Flags().Changed("http") {
				a.log.Info().Int("tools", reg.Stats().TotalTools).Msg("serving MCP over stdio")
				return tools.ServeStdio(ctx, reg)
			}
			if addr == configAddr || addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			a.log.Info().Str("addr", addr).Int("tools", reg.Stats().TotalTools).Msg("serving MCP over HTTP")
			return tools.ServeHTTP(ctx, addr, reg, a.metrics)
		},
	}
	serve.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address instead of stdio (bare --http uses http.addr)")
	serve.Flags().Lookup("http").NoOptDefVal = configAddr
	cmd.AddCommand(serve)
	return cmd
}
