package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/config"
	"github.com/lixenwraith/snake-arena/core"
	"github.com/lixenwraith/snake-arena/engine"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/score"
	"github.com/lixenwraith/snake-arena/script"
	"github.com/lixenwraith/snake-arena/status"
	"github.com/lixenwraith/snake-arena/systems"
	"github.com/lixenwraith/snake-arena/telemetry"
	"github.com/lixenwraith/snake-arena/terminal"
)

// Terminal sessions own stderr, so logs go to a file unless one is configured
const defaultLogFile = "snake-arena.log"

type options struct {
	configPath string
	logFile    string
	debug      bool
	mute       bool
	mobile     bool
	storage    string
	script     string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("snake-arena", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "TOML config file, or JSON overrides when the name ends in .json")
	fs.StringVar(&o.logFile, "log", "", "log file (default "+defaultLogFile+")")
	fs.BoolVar(&o.debug, "debug", false, "debug logging")
	fs.BoolVar(&o.mute, "mute", false, "start muted")
	fs.BoolVar(&o.mobile, "mobile", false, "treat the host as a mobile platform")
	fs.StringVar(&o.storage, "storage", "", "score storage backend: file, postgres or memory")
	fs.StringVar(&o.script, "script", "", "Lua subsystem script")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// loadConfig layers flag overrides over the config file over the defaults
func loadConfig(o options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var ov config.Overrides
	if o.debug {
		ov.Logging = &config.LoggingOverrides{Level: config.Ptr("debug")}
	}
	if o.logFile != "" {
		if ov.Logging == nil {
			ov.Logging = &config.LoggingOverrides{}
		}
		ov.Logging.File = config.Ptr(o.logFile)
	}
	if o.mute {
		ov.Audio = &config.AudioOverrides{Muted: config.Ptr(true)}
	}
	if o.storage != "" {
		ov.Storage = &config.StorageOverrides{Backend: config.Ptr(o.storage)}
	}
	if o.script != "" {
		ov.Scripting = &config.ScriptingOverrides{File: config.Ptr(o.script)}
	}
	cfg.Merge(ov)

	if cfg.Logging.File == "" {
		cfg.Logging.File = defaultLogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snake-arena: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, engine.Platform{Mobile: o.mobile}); err != nil {
		fmt.Fprintf(os.Stderr, "snake-arena: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, platform engine.Platform) error {
	log, err := core.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	core.RegisterCrashLogger(log)

	errs, closeReporter := newErrorHandler(cfg.Telemetry, log)
	defer closeReporter()
	core.RegisterCrashReporter(func(r any, stack []byte) {
		errs.LogError(telemetry.KindPanic, &telemetry.PanicError{Value: r, Stack: stack}, nil)
	})
	defer core.RegisterCrashReporter(nil)

	blob, err := score.Open(ctx, cfg.Storage.Backend, cfg.Storage.Path, cfg.Storage.DSN, log)
	if err != nil {
		errs.LogError(telemetry.KindScoreLoad, err, map[string]any{"backend": cfg.Storage.Backend})
		blob = score.NewMemoryBlob()
	}
	board := score.NewBoard(blob)
	defer board.Close()

	au := audio.NewManager(cfg.Audio, platform.Mobile, audio.WithLogger(log), audio.WithReporter(errs))

	in := input.NewDispatcher(input.WithReporter(errs), input.WithLogger(log))
	if cfg.Input.BindingsFile != "" {
		bs, err := input.LoadBindings(cfg.Input.BindingsFile)
		if err != nil {
			return err
		}
		in.ApplyBindings(bs)
	}

	var set *systems.Set
	game := engine.New(engine.NewContext(cfg, log, errs, platform), in, au, board,
		engine.WithInitializer(func(_ context.Context, c *engine.Coordinator) error {
			s, err := systems.Install(c)
			set = s
			return err
		}),
		engine.WithInitializer(installScript(cfg.Scripting, log)),
	)
	defer game.Destroy()

	svc, err := terminal.NewService(nil)
	if err != nil {
		return err
	}
	if err := svc.Init(); err != nil {
		return err
	}
	defer svc.Stop()
	svc.Start()

	if err := game.Initialize(ctx); err != nil {
		return err
	}

	driver := terminal.NewDriver(in, game, cfg.Canvas, cfg.Input.HoldTimeout, log)
	renderer := terminal.NewRenderer(svc.Screen(), cfg.Canvas)
	metrics := game.Context().Metrics
	host := newHostMetrics(metrics)

	ticker := time.NewTicker(cfg.Performance.FrameInterval())
	defer ticker.Stop()
	start := time.Now()

	log.Info("snake arena started", zap.String("storage", cfg.Storage.Backend), zap.Bool("audio", au.Enabled()))
	defer func() {
		log.Info("snake arena stopped", zap.Any("metrics", metrics.Snapshot()), zap.Int("errors", errs.Count()))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-svc.Events():
			if !driver.Handle(ev, time.Now()) {
				return nil
			}

		case now := <-ticker.C:
			driver.Expire(now)
			game.Tick(now.Sub(start))
			host.publish(au, in)
			drawFrame(errs, renderer, game, set, host)
		}
	}
}

// newErrorHandler builds the error log, publishing to NATS when a URL is configured
// An unreachable server only costs the remote copy
func newErrorHandler(cfg config.Telemetry, log *zap.Logger) (*telemetry.Handler, func()) {
	opts := []telemetry.Option{telemetry.WithMaxErrors(cfg.MaxErrors)}
	closer := func() {}
	if cfg.NATSURL != "" {
		rep, err := telemetry.DialNATS(cfg.NATSURL, cfg.Subject)
		if err != nil {
			log.Warn("telemetry reporter unavailable", zap.String("url", cfg.NATSURL), zap.Error(err))
		} else {
			opts = append(opts, telemetry.WithReporter(rep))
			closer = func() {
				if err := rep.Close(); err != nil {
					log.Warn("telemetry reporter close failed", zap.Error(err))
				}
			}
		}
	}
	return telemetry.NewHandler(log, opts...), closer
}

// installScript registers the Lua subsystem, replacing the native one of the same name
func installScript(cfg config.Scripting, log *zap.Logger) engine.Initializer {
	return func(_ context.Context, c *engine.Coordinator) error {
		if cfg.File == "" {
			return nil
		}
		sub, err := script.Load(cfg.File, c, log.Named("script"))
		if err != nil {
			return err
		}
		return c.RegisterSystem(cfg.System, sub)
	}
}

// hostMetrics caches the registry cells the frame loop writes for the host collaborators
// and reads back for the diagnostics line
type hostMetrics struct {
	voices  *atomic.Int64
	muted   *atomic.Bool
	inputOn *atomic.Bool

	food      *atomic.Int64
	particles *atomic.Int64
	errCount  *atomic.Int64
}

func newHostMetrics(m *status.Registry) hostMetrics {
	return hostMetrics{
		voices:    m.Ints.Get(status.KeyAudioVoices),
		muted:     m.Bools.Get(status.KeyAudioMuted),
		inputOn:   m.Bools.Get(status.KeyInputEnabled),
		food:      m.Ints.Get(status.KeyFoodActive),
		particles: m.Ints.Get(status.KeyPartActive),
		errCount:  m.Ints.Get(status.KeyErrors),
	}
}

func (h hostMetrics) publish(au *audio.Manager, in *input.Dispatcher) {
	h.voices.Store(int64(au.ActiveVoices()))
	h.muted.Store(au.IsMuted())
	h.inputOn.Store(in.Enabled())
}

func (h hostMetrics) diagnostics() terminal.Diagnostics {
	return terminal.Diagnostics{
		Food:      h.food.Load(),
		Particles: h.particles.Load(),
		Voices:    h.voices.Load(),
		Muted:     h.muted.Load(),
		Errors:    h.errCount.Load(),
	}
}

// drawFrame renders one frame; a panicking frame is recorded and the next tick draws again
func drawFrame(errs *telemetry.Handler, r *terminal.Renderer, game *engine.Coordinator, set *systems.Set, host hostMetrics) {
	_ = errs.Guard(telemetry.KindPanic, map[string]any{"stage": "render"}, func() error {
		f := frameOf(game, set)
		f.Diag = host.diagnostics()
		r.Draw(f)
		return nil
	})
}

func frameOf(game *engine.Coordinator, set *systems.Set) terminal.Frame {
	f := terminal.Frame{
		State: game.State(),
		FPS:   game.Stats().FPS,
	}
	if set == nil {
		return f
	}
	f.Hero = set.Game.Hero()
	f.Foods = set.Game.Foods()
	f.Particles = set.Game.Particles()
	f.Score = set.Game.Score()
	f.HighScores = set.Menu.HighScores()
	return f
}
