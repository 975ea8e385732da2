package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/bridge"
	"github.com/soar/joymidi/internal/config"
	"github.com/soar/joymidi/internal/console"
	"github.com/soar/joymidi/internal/device"
	"github.com/soar/joymidi/internal/hub"
	"github.com/soar/joymidi/internal/learn"
	"github.com/soar/joymidi/internal/midiout"
	"github.com/soar/joymidi/internal/server"
	"github.com/soar/joymidi/internal/teardown"
	"github.com/soar/joymidi/internal/tray"
)

// os.Interrupt is SIGINT on Unix.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	fs := config.NewFlagSet("joymidi")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger.Sugar()); err != nil {
		logger.Sugar().Errorw("exiting", "error", err)
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log.level %q", level)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = lvl
	zc.DisableStacktrace = true
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	out := console.NewPrinter(os.Stdout)
	closer := teardown.New(logger)
	defer closer.Close() //nolint:errcheck
	closer.AddFunc("MIDI driver", midiout.CloseDriver)

	if cfg.ListPorts {
		out.Menu("Available MIDI outputs:", midiout.Ports(), "")
		return nil
	}
	logger.Debugw("configuration loaded", "file", cfg.File)

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	want, _ := cfg.Variant()
	pair, err := device.Find(want, logger)
	if err != nil {
		var nf *device.NotFoundError
		if errors.As(err, &nf) {
			out.Error("Joy-Con not found. Make sure it is connected via Bluetooth.")
			out.Menu("Available input devices:", nf.Available, "")
		}
		return err
	}
	closer.Add("main device", pair.Main.Close)
	closer.Add("IMU device", pair.Motion.Close)

	mapping, err := cfg.Mapping(pair.Variant)
	if err != nil {
		return err
	}

	in := console.NewInput(os.Stdin)
	closer.Add("terminal", in.Restore)

	sink, portName, err := openSink(ctx, cfg.MIDI.Port, in, out, logger)
	if err != nil {
		return err
	}
	closer.Add("MIDI output", sink.Close)

	flags := cfg.Flags()
	if cfg.Learn {
		if midiout.IsNop(sink) {
			logger.Warn("MIDI learn in preview mode sends nothing")
		}
		session := learn.NewSession(mapping, pair.Motion, pair.Main, sink, in, out, cfg.LearnInterval, logger)
		if flags, err = session.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		logger.Infow("MIDI learn finished", "session", session.String(), "gyro", flags.Gyro, "joystick", flags.Joystick)
	}

	out.Configuration(mapping, flags, portName)
	out.Println("\nReading Joy-Con input... Press Ctrl+C to exit")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := bridge.New(bridge.Options{
		Mapping:        mapping,
		Flags:          flags,
		PollInterval:   cfg.PollInterval,
		StatusInterval: cfg.StatusInterval,
	}, pair.Motion, pair.Main, sink, out.Status, logger)

	serverErrCh := make(chan error, 1)
	url := ""
	stopServer := func() error { return nil }
	if cfg.Status.Listen != "" {
		url = server.URL(cfg.Status.Listen)
		srv := startStatusServer(runCtx, b, cfg.Status.Listen, serverErrCh, logger)
		stopServer = func() error {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		}
		closer.Add("status server", stopServer)
	}

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})
	if cfg.Status.Tray {
		t := tray.New(url, func() { close(shutdownRequested) }, logger)
		go t.Run()
		closer.AddFunc("tray", t.Quit)
	}

	bridgeDone := make(chan error, 1)
	go func() {
		bridgeDone <- b.Run(runCtx)
	}()

	select {
	case <-ctx.Done():
		logger.Debug("shutdown signal received")
	case <-shutdownRequested:
		logger.Info("shutdown requested from tray")
	case err = <-serverErrCh:
		logger.Errorw("status server failed", "error", err)
	}
	// The server goes first so no client arrives after the hub has stopped.
	if serr := stopServer(); serr != nil {
		logger.Debugw("stopping status server", "error", serr)
	}
	cancel()
	if berr := <-bridgeDone; berr != nil && err == nil {
		err = berr
	}

	out.Println("\nExiting...")
	return err
}

// openSink opens the configured port, or asks which one to use. Declining
// falls back to preview mode, reported as an empty port name.
func openSink(ctx context.Context, sel string, in *console.Input, out *console.Printer, logger *zap.SugaredLogger) (midiout.Sink, string, error) {
	if sel == "" {
		names := midiout.Ports()
		if len(names) == 0 {
			out.Error("No MIDI output devices found!")
			return midiout.Nop(), "", nil
		}
		n, err := console.Choose(ctx, in, out, "Available MIDI outputs:", names,
			"Preview mode (no MIDI output)", "Enter device number (or 'q' to skip):")
		if err != nil {
			return nil, "", err
		}
		if n == console.Skipped {
			out.Println("Continuing without MIDI output (preview mode)")
			return midiout.Nop(), "", nil
		}
		sel = strconv.Itoa(n)
	}

	port, err := midiout.Open(sel, logger)
	if err != nil {
		return nil, "", err
	}
	out.Printf("Connected to MIDI output: %s\n", port.Name())
	return port, port.Name(), nil
}

func startStatusServer(ctx context.Context, b *bridge.Bridge, addr string, errCh chan<- error, logger *zap.SugaredLogger) *server.Server {
	h := hub.NewHub(logger)
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, b.Changes(), logger)
	broadcaster.Seed(b.CurrentStatus())
	go broadcaster.Run(ctx)

	srv := server.New(h, broadcaster, getFrontendFS(), addr, logger)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return srv
}
