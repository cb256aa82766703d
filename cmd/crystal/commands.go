package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Lunar-Chipter/crystal"
	"github.com/Lunar-Chipter/crystal/internal/outputs"
)

// newRootCmd builds the crystal command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crystal",
		Short: "Render log4j-style layouts and dates",
		Long: `crystal renders log4j-style layout patterns and date masks,
prints logging configurations and runs a small logging demo.`,
		SilenceUsage: true,
	}
	root.AddCommand(newFormatCmd(), newDateCmd(), newDirectivesCmd(), newConfigCmd(), newDemoCmd())
	return root
}

// parseTime reads an RFC 3339 timestamp, empty meaning now
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", value)
	}
	return t, nil
}

func newFormatCmd() *cobra.Command {
	var level, logger, at string
	cmd := &cobra.Command{
		Use:   "format <layout> [message]",
		Short: "Render one event through a layout pattern",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := crystal.ParseLevel(level)
			if err != nil {
				return err
			}
			date, err := parseTime(at)
			if err != nil {
				return err
			}
			event := &crystal.LogEvent{
				Date:     date,
				Level:    lvl,
				Logger:   logger,
				Sequence: 1,
			}
			if len(args) > 1 {
				event.Message = args[1]
			}
			fmt.Fprintln(cmd.OutOrStdout(), crystal.Format(args[0], event))
			return nil
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "INFO", "Event level")
	cmd.Flags().StringVar(&logger, "logger", "main", "Logger name")
	cmd.Flags().StringVar(&at, "at", "", "Event time in RFC 3339 (default: now)")
	return cmd
}

// printSorted writes one "key value" line per entry in key order
func printSorted[V any](w io.Writer, entries map[string]V) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s %v\n", k, entries[k])
	}
}

func newDateCmd() *cobra.Command {
	var at string
	var list bool
	cmd := &cobra.Command{
		Use:   "date [mask]",
		Short: "Format a time with a date mask or a named mask",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				printSorted(cmd.OutOrStdout(), crystal.DateMasks())
				return nil
			}
			t, err := parseTime(at)
			if err != nil {
				return err
			}
			mask := ""
			if len(args) == 1 {
				mask = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), crystal.FormatDate(t, mask))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Time in RFC 3339 (default: now)")
	cmd.Flags().BoolVar(&list, "list", false, "List the named masks instead of formatting")
	return cmd
}

func newDirectivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "directives",
		Short: "List the directives accepted in layout patterns",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printSorted(cmd.OutOrStdout(), crystal.LayoutDirectives())
		},
	}
}

// outputFlags are shared by the config and demo commands
type outputFlags struct {
	layout  string
	level   string
	file    string
	rotate  string
	zap     bool
	sample  int
	metrics bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.layout, "layout", crystal.NewDefaultConfig().Layout, "Layout pattern")
	cmd.Flags().StringVarP(&f.level, "level", "l", "INFO", "Level of the main logger")
	cmd.Flags().StringVar(&f.file, "file", "", "Append events to this file")
	cmd.Flags().StringVar(&f.rotate, "rotate", "", "Append events to this size-rotated file")
	cmd.Flags().BoolVar(&f.zap, "zap", false, "Forward events to a zap console logger")
	cmd.Flags().IntVar(&f.sample, "sample", 1, "Keep one event out of every N")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "Register Prometheus metrics")
}

func (f *outputFlags) config() (*crystal.Config, error) {
	level, err := crystal.ParseLevel(f.level)
	if err != nil {
		return nil, err
	}
	cfg := crystal.NewDefaultConfig()
	cfg.Layout = f.layout
	cfg.Loggers = []crystal.LoggerConfig{{Tag: "main", Level: level}}
	if f.file != "" {
		cfg.File = &crystal.FileConfig{Path: f.file}
	}
	if f.rotate != "" {
		cfg.Rotation = &crystal.RotationConfig{Path: f.rotate, MaxSize: 10, MaxBackups: 3}
	}
	cfg.Zap.Enabled = f.zap
	cfg.SamplingRate = f.sample
	cfg.EnableMetrics = f.metrics
	return cfg, cfg.Validate()
}

func newConfigCmd() *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration built from the flags as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newDemoCmd() *cobra.Command {
	var flags outputFlags
	var count int
	var metricsAddr string
	var stats bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Log sample events through the configured appenders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			cfg.Console.Enabled = true

			reg := prometheus.NewRegistry()
			mem := crystal.NewMemoryMetrics()
			m := crystal.NewManager(crystal.WithRegisterer(reg), crystal.WithMetrics(mem))
			defer m.Close()
			if err := m.AddAppender(func() crystal.Appender {
				return outputs.NewConsoleAppenderWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
			}); err != nil {
				return err
			}
			if err := m.Configure(cfg); err != nil {
				return err
			}

			log := m.GetLogger("demo")
			for i := 1; i <= count; i++ {
				log.Info("processed item {} of {}", i, count)
			}
			log.Debug("debug details", map[string]interface{}{"count": count})
			log.Warn("queue almost full", map[string]interface{}{"used": 90, "size": 100})
			log.Error("request failed", errors.New("connection reset"))
			if stats {
				printSorted(cmd.OutOrStdout(), mem.GetAllCounters())
			}

			if metricsAddr == "" {
				return nil
			}
			return serveMetrics(cmd, reg, metricsAddr)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&count, "count", "n", 3, "Number of info events")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print event and appender counters after the demo")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics on this address until interrupted")
	return cmd
}

// serveMetrics exposes reg over HTTP until SIGINT or SIGTERM
func serveMetrics(cmd *cobra.Command, reg *prometheus.Registry, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	cmd.PrintErrf("serving metrics on http://%s/metrics\n", addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metrics server")
	case <-sig:
		return srv.Close()
	}
}
