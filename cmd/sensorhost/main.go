// Package main runs the diagnostic sensor components described by a config file, polls their
// readings, and serves metrics about them.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/diagsensors/config"
	"go.viam.com/diagsensors/host"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/models"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/values"
)

const (
	// Flags.
	flagConfig       = "config"
	flagPollInterval = "poll-interval"
	flagDebug        = "debug"
	flagMetricsAddr  = "metrics-addr"
	flagLogFile      = "log-file"
	flagRounds       = "rounds"
	flagName         = "name"
	flagPayload      = "payload"
)

var logger = logging.NewLogger("sensorhost")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	return newApp(resource.DefaultRegistry(), logger).RunContext(ctx, args)
}

func newApp(reg *resource.Registry, logger logging.Logger) *cli.App {
	return &cli.App{
		Name:  "sensorhost",
		Usage: "run diagnostic sensor components",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "Load configuration from `FILE`",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  flagPollInterval,
				Usage: "override the config's poll interval",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagMetricsAddr,
				Usage: "serve prometheus metrics on `ADDR` (disabled when empty)",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated by size",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			if path := c.String(flagLogFile); path != "" {
				logFile := &lumberjack.Logger{
					Filename:   path,
					MaxSize:    100,
					MaxBackups: 2,
					Compress:   true,
				}
				logger.AddAppender(logging.NewWriterAppender(logFile))
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return runHost(c, reg, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "poll",
				Usage: "poll every component a few times and print a summary",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagRounds,
						Value: 3,
						Usage: "number of poll rounds",
					},
				},
				Action: func(c *cli.Context) error {
					return runPoll(c, reg, logger)
				},
			},
			{
				Name:  "do-command",
				Usage: "send one command to a component and print its response",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagName,
						Usage:    "component `NAME`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagPayload,
						Value: "{}",
						Usage: "command as a JSON object",
					},
				},
				Action: func(c *cli.Context) error {
					return runDoCommand(c, reg, logger)
				},
			},
		},
	}
}

// setup registers the models, reads the config, and starts a host running it.
func setup(c *cli.Context, reg *resource.Registry, logger logging.Logger, opts ...host.Option) (*host.Host, *config.Config, error) {
	if err := models.RegisterModels(reg); err != nil {
		return nil, nil, errors.Wrap(err, "registering models")
	}
	reg.Seal()

	initialReadCtx, cancel := context.WithTimeout(c.Context, time.Second*5)
	conf, err := config.Read(initialReadCtx, c.String(flagConfig), logger)
	cancel()
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet(flagPollInterval) {
		conf.PollInterval = c.Duration(flagPollInterval)
	}

	h, err := host.New(reg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := h.Apply(c.Context, conf); err != nil {
		logger.Warnw("some components failed to start", "error", err)
	}
	return h, conf, nil
}

func runPoll(c *cli.Context, reg *resource.Registry, logger logging.Logger) (err error) {
	rounds := c.Int(flagRounds)
	if rounds <= 0 {
		return errors.Errorf("--%s must be positive, got %d", flagRounds, rounds)
	}
	h, conf, err := setup(c, reg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, h.Close(context.Background()))
	}()

	results := make([][]host.PollResult, 0, rounds)
	for i := 0; i < rounds; i++ {
		if i > 0 && !goutils.SelectContextOrWait(c.Context, conf.PollInterval) {
			return c.Context.Err()
		}
		round, err := h.PollOnce(c.Context)
		if err != nil {
			return err
		}
		results = append(results, round)
	}
	_, err = fmt.Fprintln(c.App.Writer, host.NewReport(results).String())
	return err
}

func runDoCommand(c *cli.Context, reg *resource.Registry, logger logging.Logger) (err error) {
	payload := &structpb.Struct{}
	if err := protojson.Unmarshal([]byte(c.String(flagPayload)), payload); err != nil {
		return errors.Wrapf(err, "parsing --%s", flagPayload)
	}
	cmd, err := values.RecordFromProto(payload)
	if err != nil {
		return err
	}

	h, _, err := setup(c, reg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, h.Close(context.Background()))
	}()

	resp, err := h.DoCommand(c.Context, c.String(flagName), cmd)
	if err != nil {
		return err
	}
	if resp == nil {
		_, err = fmt.Fprintln(c.App.Writer, "no response")
		return err
	}
	out, err := protojson.Marshal(resp.ToProto())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

func runHost(c *cli.Context, reg *resource.Registry, logger logging.Logger) (err error) {
	ctx := c.Context
	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(collectors.NewGoCollector())
	h, conf, err := setup(c, reg, logger, host.WithMetricsRegistry(metricsReg))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, h.Close(context.Background()))
	}()
	pollInterval := conf.PollInterval
	logger.Infow("components running", "names", h.Names(), "poll_interval", pollInterval)

	poller, err := host.NewPoller(h, pollInterval, logger, nil)
	if err != nil {
		return err
	}
	poller.Start()
	defer func() {
		err = multierr.Combine(err, poller.Shutdown())
	}()

	watcher, err := config.NewWatcher(conf, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, watcher.Close())
	}()

	if addr := c.String(flagMetricsAddr); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		goutils.PanicCapturingGo(func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("metrics server stopped", "error", err)
			}
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = multierr.Combine(err, server.Shutdown(shutdownCtx))
		}()
		logger.Infow("serving metrics", "addr", addr)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case newConf := <-watcher.Config():
			if err := h.Apply(ctx, newConf); err != nil {
				logger.Warnw("some components failed to reconfigure", "error", err)
			}
			if !c.IsSet(flagPollInterval) {
				if err := poller.SetInterval(newConf.PollInterval); err != nil {
					logger.Errorw("failed to change poll interval", "error", err)
				}
			}
		}
	}
}
