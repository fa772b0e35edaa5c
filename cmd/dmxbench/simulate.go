package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmx-tools/dmxbench/pkg/gatewaysim"
)

func simulateCmd() *cobra.Command {
	var (
		modbusAddr string
		httpAddr   string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an in-process DMX gateway simulator",
		Long: `Serve all three gateway surfaces — Modbus TCP, REST, and WebSocket —
over one shared channel universe, for development and CI. Runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			sim := gatewaysim.New(logger)
			if err := sim.Start(modbusAddr, httpAddr); err != nil {
				return err
			}
			defer sim.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			logger.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&modbusAddr, "modbus-addr", "127.0.0.1:5020", "Modbus TCP listen address")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "127.0.0.1:8080", "HTTP/WebSocket listen address")
	return cmd
}
