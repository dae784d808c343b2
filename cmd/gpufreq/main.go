package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/gpufreq/internal/cache"
	"codeberg.org/mutker/gpufreq/internal/catalog"
	"codeberg.org/mutker/gpufreq/internal/clock"
	"codeberg.org/mutker/gpufreq/internal/config"
	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/gpufreq"
	"codeberg.org/mutker/gpufreq/internal/history"
	"codeberg.org/mutker/gpufreq/internal/logger"
	"codeberg.org/mutker/gpufreq/internal/monitor"
	"codeberg.org/mutker/gpufreq/internal/pid"
	"codeberg.org/mutker/gpufreq/internal/shell"
	"codeberg.org/mutker/gpufreq/internal/vendor"
	"codeberg.org/mutker/gpufreq/internal/vfs"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUnavailable = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitFailure
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.SetLogLevel(cfg.Level())
	log := logger.Default()
	log.Debug().Str("file", cfg.ConfigFile).Msg("Config loaded")

	out := newPrinter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))

	recorder, err := history.NewService(cfg.HistoryConfig(), log.With("history"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize history")
		return exitFailure
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close history")
		}
	}()

	if cfg.Recent > 0 {
		entries, err := recorder.Recent(cfg.Recent)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read history")
			return exitFailure
		}
		out.PrintEntries(entries)
		return exitOK
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	reader, closeReader, err := newReader(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to set up frequency reader")
		return exitFailure
	}
	defer closeReader()

	if cfg.Once {
		state := reader.Read(ctx)
		if gpufreq.IsCanceled(state) {
			log.Warn().Msg("Interrupted before the read finished")
			return exitFailure
		}
		out.Print(state)
		record(ctx, recorder, state, log)
		if _, ok := state.(gpufreq.Available); ok {
			return exitOK
		}
		return exitUnavailable
	}

	if err := pid.Write(cfg.PIDFile); err != nil {
		if errors.HasCode(err, errors.ErrAlreadyRunning) {
			log.Error().Str("pid_file", cfg.PIDFile).Msg("Another gpufreq monitor is already running")
		} else {
			log.Error().Err(err).Msg("Failed to write PID file")
		}
		return exitFailure
	}
	defer func() {
		if err := pid.Remove(cfg.PIDFile); err != nil {
			log.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	return watch(ctx, cfg, reader, recorder, out, log)
}

func watch(ctx context.Context, cfg *config.Config, reader gpufreq.FrequencyReader,
	recorder history.Recorder, out *printer, log logger.Logger,
) int {
	mon := monitor.New(reader, log.With("monitor"))
	updates, unsubscribe := mon.Subscribe()
	defer unsubscribe()

	mon.Start(ctx, cfg.Interval)
	defer mon.Stop()

	log.Info().Dur("interval", cfg.Interval).Msg("Monitoring GPU frequency")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Exiting...")
			return exitOK
		case state, ok := <-updates:
			if !ok {
				return exitOK
			}
			out.Print(state)
			record(ctx, recorder, state, log)
		}
	}
}

func record(ctx context.Context, recorder history.Recorder, state gpufreq.State, log logger.Logger) {
	if err := recorder.Record(ctx, state); err != nil {
		log.Warn().Err(err).Msg("Failed to record reading")
	}
}

// newReader wires the reader for the configured target. The returned
// function releases any remote connections.
func newReader(cfg *config.Config, log logger.Logger) (*gpufreq.Reader, func(), error) {
	var (
		runner  shell.Runner
		fs      vfs.FS
		closers []func() error
	)

	prefix := shell.ParsePrivilegeCommand(cfg.PrivilegeCommand)
	target := cfg.ShellTarget()

	if target.IsRemote() {
		client, err := shell.DialSSH(target)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, client.Close)
		runner = shell.NewSSHRunner(client, prefix)

		sftpFS := vfs.NewSFTP(client, cfg.Timeout)
		closers = append([]func() error{sftpFS.Close}, closers...)
		fs = sftpFS
	} else {
		runner = shell.NewLocalRunner(prefix)
		fs = vfs.NewLocal("")
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Debug().Err(err).Msg("Close failed")
			}
		}
	}

	cat, err := catalog.Default().Extend(cfg.Catalog.Extra)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	exec := shell.New(runner,
		shell.WithTimeout(cfg.Timeout),
		shell.WithLogger(log.With("shell")))

	classifier := vendor.NewClassifier(exec, vendor.NewSurfaceFlingerRenderer(exec), log.With("vendor"))

	var fallback *gpufreq.Fallback
	if fs != nil {
		fallback = gpufreq.NewFallback(fs, cat, clock.Real(), log.With("fallback"))
	}

	reader := gpufreq.NewReader(exec, classifier, cat,
		cache.New(clock.Real(), cfg.CacheTTL), fallback,
		gpufreq.WithLogger(log.With("reader")))

	log.Debug().
		Bool("remote", target.IsRemote()).
		Strs("privilege_command", prefix).
		Dur("timeout", cfg.Timeout).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Frequency reader ready")

	return reader, closeAll, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
