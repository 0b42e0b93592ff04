package main

import (
	"context"
	"errors"
	"flag"
	"image/color"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	opensign "github.com/Maker-Melissa/OpenSign"
	"github.com/Maker-Melissa/OpenSign/internal/config"
	"github.com/Maker-Melissa/OpenSign/internal/preview"
	"github.com/Maker-Melissa/OpenSign/internal/show"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		rows        = flag.Int("rows", 16, "LED rows per panel")
		cols        = flag.Int("cols", 32, "LED columns per panel")
		chain       = flag.Int("chain", 1, "daisy-chained panels")
		parallel    = flag.Int("parallel", 1, "parallel chains")
		brightness  = flag.Int("brightness", 100, "global brightness 0..100")
		driver      = flag.String("driver", "", "driver: spi | term | sim (default: spi with term fallback)")
		spiPort     = flag.String("spi-port", "", "spidev port name (default: first registered)")
		rgbSequence = flag.String("rgb-sequence", "rgb", "LED color order (e.g. rgb, grb)")
		pixelMapper = flag.String("pixel-mapper", "", "pixel mapper: empty or serpentine")
		text        = flag.String("text", "Hello World!", "demo message")
		fontPath    = flag.String("font", "", "TrueType font path (absolute); empty uses the built-in face")
		fontSize    = flag.Float64("font-size", 14, "font point size")
		configPath  = flag.String("config", "", "path to config.yaml")
		showPath    = flag.String("show", "", "path to a YAML show program")
		previewAddr = flag.String("preview", "", "HTTP listen address for the websocket preview")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config: file (optional) + environment overrides ----
	var cfg *config.Config
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			cfg = c
		}
	}
	if cfg == nil {
		c, err := config.FromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("bad environment configuration")
		}
		cfg = c
	}

	// ---- Effective params (config overrides flags where set) ----
	opts := opensign.Options{
		Rows:        *rows,
		Columns:     *cols,
		ChainLength: *chain,
		Parallel:    *parallel,
		Brightness:  *brightness,
		RGBSequence: *rgbSequence,
		PixelMapper: *pixelMapper,
		Driver:      *driver,
		SPIPort:     *spiPort,
	}
	if cfg.Matrix.Rows > 0 {
		opts.Rows = cfg.Matrix.Rows
	}
	if cfg.Matrix.Cols > 0 {
		opts.Columns = cfg.Matrix.Cols
	}
	if cfg.Matrix.ChainLength > 0 {
		opts.ChainLength = cfg.Matrix.ChainLength
	}
	if cfg.Matrix.Parallel > 0 {
		opts.Parallel = cfg.Matrix.Parallel
	}
	if cfg.Matrix.Brightness > 0 {
		opts.Brightness = cfg.Matrix.Brightness
	}
	if cfg.Matrix.RGBSequence != "" {
		opts.RGBSequence = cfg.Matrix.RGBSequence
	}
	if cfg.Matrix.PixelMapper != "" {
		opts.PixelMapper = cfg.Matrix.PixelMapper
	}
	if cfg.Driver != "" {
		opts.Driver = cfg.Driver
	}
	if cfg.SPIPort != "" {
		opts.SPIPort = cfg.SPIPort
	}
	effShow := *showPath
	if cfg.ShowPath != "" {
		effShow = cfg.ShowPath
	}
	effPreview := *previewAddr
	if cfg.PreviewAddr != "" {
		effPreview = cfg.PreviewAddr
	}

	// ---- Preview server ----
	var srv *preview.Server
	if effPreview != "" {
		srv = preview.New(opts.Columns*opts.ChainLength, opts.Rows*opts.Parallel)
		opts.FrameObserver = srv.Broadcast
		httpSrv := &http.Server{
			Addr:         effPreview,
			Handler:      srv.Routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", effPreview).Msg("preview server starting")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("preview server crashed")
			}
		}()
	}

	// ---- Sign ----
	sign, err := opensign.New(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("sign init failed")
	}
	defer func() {
		if err := sign.Close(); err != nil {
			log.Warn().Err(err).Msg("sign close")
		}
	}()

	// ---- Canvas ----
	canvas := opensign.NewCanvas()
	if *fontPath != "" {
		if err := canvas.AddFont("main", *fontPath, *fontSize, true); err != nil {
			log.Fatal().Err(err).Str("path", *fontPath).Msg("font load failed")
		}
	}
	canvas.SetStroke(1, color.NRGBA{A: 0xFF})
	canvas.SetShadow(0.5, 1)
	if err := canvas.AddText(*text, opensign.WithColor(opensign.RGB(0xFFFF00))); err != nil {
		log.Fatal().Err(err).Msg("canvas text failed")
	}

	// ---- Program ----
	prog := builtinDemo()
	if effShow != "" {
		p, err := show.Load(effShow)
		if err != nil {
			log.Fatal().Err(err).Str("path", effShow).Msg("show program load failed")
		}
		prog = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	player := show.NewPlayer(effectRegistry(sign, canvas))
	log.Info().
		Int("width", sign.Width()).
		Int("height", sign.Height()).
		Bool("loop", prog.Loop).
		Int("steps", len(prog.Steps)).
		Msg("show starting")

	if err := player.Run(ctx, prog); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("show failed")
	}
	log.Info().Msg("show finished")
}

// effectRegistry binds show step names to sign animations.
func effectRegistry(s *opensign.Sign, c *opensign.Canvas) map[string]show.Effect {
	second := time.Second
	half := 500 * time.Millisecond
	count := func(st show.Step) int {
		if st.Count <= 0 {
			return 1
		}
		return st.Count
	}
	return map[string]show.Effect{
		"show": func(ctx context.Context, st show.Step) error { return s.Show(c) },
		"hide": func(ctx context.Context, st show.Step) error { return s.Hide(c) },
		"set_position": func(ctx context.Context, st show.Step) error {
			return s.SetPosition(c, st.X, st.Y)
		},
		"scroll_in_from_left": func(ctx context.Context, st show.Step) error {
			return s.ScrollInFromLeft(ctx, c, st.DurationOrDefault(second), st.X)
		},
		"scroll_in_from_right": func(ctx context.Context, st show.Step) error {
			return s.ScrollInFromRight(ctx, c, st.DurationOrDefault(second), st.X)
		},
		"scroll_in_from_top": func(ctx context.Context, st show.Step) error {
			return s.ScrollInFromTop(ctx, c, st.DurationOrDefault(second), st.Y)
		},
		"scroll_in_from_bottom": func(ctx context.Context, st show.Step) error {
			return s.ScrollInFromBottom(ctx, c, st.DurationOrDefault(second), st.Y)
		},
		"scroll_out_to_left": func(ctx context.Context, st show.Step) error {
			return s.ScrollOutToLeft(ctx, c, st.DurationOrDefault(second))
		},
		"scroll_out_to_right": func(ctx context.Context, st show.Step) error {
			return s.ScrollOutToRight(ctx, c, st.DurationOrDefault(second))
		},
		"scroll_out_to_top": func(ctx context.Context, st show.Step) error {
			return s.ScrollOutToTop(ctx, c, st.DurationOrDefault(second))
		},
		"scroll_out_to_bottom": func(ctx context.Context, st show.Step) error {
			return s.ScrollOutToBottom(ctx, c, st.DurationOrDefault(second))
		},
		"blink": func(ctx context.Context, st show.Step) error {
			return s.Blink(ctx, c, count(st), st.DurationOrDefault(second))
		},
		"flash": func(ctx context.Context, st show.Step) error {
			return s.Flash(ctx, c, count(st), st.DurationOrDefault(second))
		},
		"fade_in": func(ctx context.Context, st show.Step) error {
			return s.FadeIn(ctx, c, st.DurationOrDefault(second), st.Steps)
		},
		"fade_out": func(ctx context.Context, st show.Step) error {
			return s.FadeOut(ctx, c, st.DurationOrDefault(second), st.Steps)
		},
		"join_in_horizontally": func(ctx context.Context, st show.Step) error {
			return s.JoinInHorizontally(ctx, c, st.DurationOrDefault(half))
		},
		"join_in_vertically": func(ctx context.Context, st show.Step) error {
			return s.JoinInVertically(ctx, c, st.DurationOrDefault(half))
		},
		"split_out_horizontally": func(ctx context.Context, st show.Step) error {
			return s.SplitOutHorizontally(ctx, c, st.DurationOrDefault(half))
		},
		"split_out_vertically": func(ctx context.Context, st show.Step) error {
			return s.SplitOutVertically(ctx, c, st.DurationOrDefault(half))
		},
		"loop_left": func(ctx context.Context, st show.Step) error {
			return s.LoopLeft(ctx, c, st.DurationOrDefault(second), count(st))
		},
		"loop_right": func(ctx context.Context, st show.Step) error {
			return s.LoopRight(ctx, c, st.DurationOrDefault(second), count(st))
		},
		"loop_up": func(ctx context.Context, st show.Step) error {
			return s.LoopUp(ctx, c, st.DurationOrDefault(half), count(st))
		},
		"loop_down": func(ctx context.Context, st show.Step) error {
			return s.LoopDown(ctx, c, st.DurationOrDefault(half), count(st))
		},
	}
}

// builtinDemo cycles the classic sequence when no show program is given.
func builtinDemo() show.Program {
	return show.Program{
		Loop: true,
		Steps: []show.Step{
			{Effect: "join_in_vertically"},
			{Effect: "loop_left", Pause: 0.5},
			{Effect: "flash", Count: 3},
			{Effect: "split_out_vertically", Pause: 1},
			{Effect: "fade_in", Pause: 1},
			{Effect: "fade_out"},
			{Effect: "scroll_in_from_top", Pause: 1},
			{Effect: "scroll_out_to_bottom"},
			{Effect: "scroll_in_from_right", Pause: 1},
			{Effect: "scroll_out_to_left"},
		},
	}
}
