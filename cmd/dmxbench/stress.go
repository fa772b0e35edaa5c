package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dmx-tools/dmxbench/internal/config"
	"github.com/dmx-tools/dmxbench/pkg/loadtest"
)

// stressOptions collects the flags shared by all stress subcommands.
type stressOptions struct {
	target      string
	clients     int
	requests    int
	mode        string
	timeout     time.Duration
	rps         float64
	jsonOut     bool
	s3Bucket    string
	s3Key       string
	metricsAddr string
	trace       bool
}

func (o *stressOptions) register(cmd *cobra.Command, defaultMode string) {
	cmd.Flags().StringVar(&o.target, "target", "", "Gateway host:port (default from dmxbench.json)")
	cmd.Flags().IntVar(&o.clients, "clients", 0, "Concurrent clients (default from dmxbench.json)")
	cmd.Flags().IntVar(&o.requests, "requests", 0, "Operations per client (default from dmxbench.json)")
	cmd.Flags().StringVar(&o.mode, "type", defaultMode, "Operation mix")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Per-connection I/O timeout")
	cmd.Flags().Float64Var(&o.rps, "rps", 0, "Per-client operation rate limit (0 = unpaced)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "Emit the report as JSON on stdout")
	cmd.Flags().StringVar(&o.s3Bucket, "s3-bucket", "", "Upload the JSON report to this S3 bucket")
	cmd.Flags().StringVar(&o.s3Key, "s3-key", "", "S3 object key for the report (default generated)")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	cmd.Flags().BoolVar(&o.trace, "trace", false, "Record a span per operation and log completed spans")
}

// fill resolves unset flags from the config file.
func (o *stressOptions) fill(cfg *config.Config, modbus bool) {
	if o.target == "" {
		if modbus {
			o.target = cfg.ModbusTarget
		} else {
			o.target = cfg.HTTPTarget
		}
	}
	if o.clients == 0 {
		o.clients = cfg.Clients
	}
	if o.requests == 0 {
		o.requests = cfg.Requests
	}
	if o.timeout == 0 {
		o.timeout = cfg.Timeout()
	}
}

func stressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent load test against the gateway",
	}
	cmd.AddCommand(stressModbusCmd(), stressWSCmd(), stressHTTPCmd())
	return cmd
}

func stressModbusCmd() *cobra.Command {
	opts := &stressOptions{}
	cmd := &cobra.Command{
		Use:   "modbus",
		Short: "Stress the Modbus TCP surface",
		Long: `Open one Modbus TCP connection per client and issue register and
coil operations. --type selects the mix: read, write, coil, or mixed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.fill(cfg, true)
			return runStress(cmd, opts, "modbus", func(int) loadtest.Workload {
				return &loadtest.ModbusWorkload{
					Target:  opts.target,
					Mode:    loadtest.ModbusMode(opts.mode),
					Timeout: opts.timeout,
				}
			})
		},
	}
	opts.register(cmd, string(loadtest.ModbusMixed))
	return cmd
}

func stressWSCmd() *cobra.Command {
	opts := &stressOptions{}
	var light string
	var replyTimeout time.Duration
	cmd := &cobra.Command{
		Use:     "ws",
		Aliases: []string{"websocket"},
		Short:   "Stress the WebSocket command channel",
		Long: `Upgrade one WebSocket connection per client and send gateway
commands, waiting for one reply per command. Broadcast traffic from
other clients is drained and counted separately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.fill(cfg, false)
			if light == "" {
				light = cfg.Light
			}
			if replyTimeout == 0 {
				replyTimeout = cfg.ReplyTimeout()
			}
			return runStress(cmd, opts, "websocket", func(int) loadtest.Workload {
				return &loadtest.WebSocketWorkload{
					Target:       opts.target,
					Path:         cfg.WSPath,
					Light:        light,
					Mode:         loadtest.WSMode(opts.mode),
					Timeout:      opts.timeout,
					ReplyTimeout: replyTimeout,
				}
			})
		},
	}
	opts.register(cmd, string(loadtest.WSMixed))
	cmd.Flags().IntVar(&opts.requests, "messages", 0, "Alias for --requests")
	cmd.Flags().StringVar(&light, "light", "", "Fixture targeted by set/get commands")
	cmd.Flags().DurationVar(&replyTimeout, "reply-timeout", 0, "Per-command reply deadline")
	return cmd
}

func stressHTTPCmd() *cobra.Command {
	opts := &stressOptions{}
	var light string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Stress the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.fill(cfg, false)
			if light == "" {
				light = cfg.Light
			}
			return runStress(cmd, opts, "http", func(int) loadtest.Workload {
				return &loadtest.HTTPWorkload{
					Target:  opts.target,
					Light:   light,
					Mode:    loadtest.HTTPMode(opts.mode),
					Timeout: opts.timeout,
				}
			})
		},
	}
	opts.register(cmd, string(loadtest.HTTPMixed))
	cmd.Flags().StringVar(&light, "light", "", "Fixture targeted by set commands")
	return cmd
}

// runStress drives one complete load test: run, report, optional upload.
func runStress(cmd *cobra.Command, opts *stressOptions, workload string, newWorkload func(int) loadtest.Workload) error {
	if opts.clients < 1 || opts.requests < 1 {
		return fmt.Errorf("clients and requests must both be at least 1")
	}
	logger := newLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &loadtest.Runner{
		Clients:  opts.clients,
		Requests: opts.requests,
		Rate:     opts.rps,
		Logger:   logger,
	}

	if opts.trace {
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(&slogSpanExporter{logger: logger}))
		defer tp.Shutdown(context.Background())
		runner.Tracer = tp.Tracer("dmxbench")
	}

	var metricsSrv *http.Server
	if opts.metricsAddr != "" {
		m := loadtest.NewMetrics()
		runner.Metrics = m
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: opts.metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server", "err", err)
			}
		}()
		defer metricsSrv.Close()
		logger.Info("metrics exposed", "addr", opts.metricsAddr)
	}

	logger.Info("starting load test",
		"workload", workload, "target", opts.target,
		"clients", opts.clients, "requests", opts.requests, "mode", opts.mode)

	stats, elapsed := runner.Run(ctx, newWorkload)
	rep := loadtest.BuildReport(workload+"/"+opts.mode, opts.target, opts.clients, opts.requests, stats, elapsed)

	if opts.jsonOut {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		rep.Print(os.Stdout)
	}

	if opts.s3Bucket != "" {
		pub, err := loadtest.NewPublisher(context.Background(), opts.s3Bucket, "loadtests/")
		if err != nil {
			return err
		}
		key, err := pub.Publish(context.Background(), rep, opts.s3Key)
		if err != nil {
			return err
		}
		logger.Info("report uploaded", "bucket", opts.s3Bucket, "key", key)
	}
	return nil
}

// loadConfig reads dmxbench.json from the --config directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("config")
	return config.Load(dir)
}
