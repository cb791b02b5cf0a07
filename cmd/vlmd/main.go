package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vlmd/internal/common/fsutil"
	"vlmd/internal/config"
	"vlmd/internal/device"
	"vlmd/internal/httpapi"
	"vlmd/internal/vlm"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configFile string
	var corsOrigins string

	root := &cobra.Command{
		Use:           "vlmd",
		Short:         "Local vision-language model inference server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile, corsOrigins)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	f := root.Flags()
	f.StringVar(&configFile, "config", "", "Optional config file (yaml, json or toml)")
	f.String("model-path", "", "Path to the model artifacts (required)")
	f.String("model-base", "", "Optional base model for delta/LoRA checkpoints")
	f.String("conv-mode", config.DefaultConvMode, "Conversation template: qwen_2|llava_v1|plain")
	f.String("host", config.DefaultHost, "HTTP bind host")
	f.Int("port", config.DefaultPort, "HTTP bind port")
	f.Bool("debug", false, "Enable debug logging with pretty console output")
	f.String("log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	f.String("lib-path", "", "Directory holding the inference engine shared libraries")
	f.Int("threads", 0, "Engine worker threads (0 = auto)")
	f.Int("context-window", 0, "Context window override (0 = model default)")
	f.Int64("max-body-bytes", config.DefaultMaxBodyBytes, "Maximum request body size in bytes")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated CORS allowed origins (empty = allow all)")

	return root
}

// resolveConfig merges config sources. Precedence, lowest to highest:
// package defaults, config file, VLMD_* environment, explicit flags.
func resolveConfig(cmd *cobra.Command, configFile, corsOrigins string) (config.Config, error) {
	var cfg config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", configFile, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("apply environment: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("model-path") || cfg.ModelPath == "" {
		cfg.ModelPath, _ = f.GetString("model-path")
	}
	if f.Changed("model-base") {
		cfg.ModelBase, _ = f.GetString("model-base")
	}
	if f.Changed("conv-mode") {
		cfg.ConvMode, _ = f.GetString("conv-mode")
	}
	if f.Changed("host") {
		cfg.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		cfg.Port, _ = f.GetInt("port")
	}
	if f.Changed("debug") {
		cfg.Debug, _ = f.GetBool("debug")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("lib-path") {
		cfg.LibPath, _ = f.GetString("lib-path")
	}
	if f.Changed("threads") {
		cfg.Threads, _ = f.GetInt("threads")
	}
	if f.Changed("context-window") {
		cfg.ContextWindow, _ = f.GetInt("context-window")
	}
	if f.Changed("max-body-bytes") {
		cfg.MaxBodyBytes, _ = f.GetInt64("max-body-bytes")
	}
	if f.Changed("cors-origins") {
		cfg.CORSAllowedOrigins = splitCSV(corsOrigins)
	}
	config.FillDefaults(&cfg)

	if cfg.ModelPath == "" {
		return cfg, errors.New("--model-path is required (or set VLMD_MODEL_PATH)")
	}
	expanded, err := fsutil.ExpandHome(cfg.ModelPath)
	if err != nil {
		return cfg, err
	}
	if !fsutil.PathExists(expanded) {
		return cfg, fmt.Errorf("model path does not exist: %s", expanded)
	}
	cfg.ModelPath = expanded
	return cfg, nil
}

func run(cfg config.Config) error {
	logger := newLogger(cfg)

	dev := device.Detect()
	logger.Info().Str("device", string(dev)).Msg("selected compute device")

	srv := vlm.NewServer(vlm.ServerConfig{
		ModelPath:     cfg.ModelPath,
		ModelBase:     cfg.ModelBase,
		ConvMode:      cfg.ConvMode,
		Device:        string(dev),
		LibPath:       cfg.LibPath,
		Threads:       cfg.Threads,
		ContextWindow: cfg.ContextWindow,
	}, vlm.NewEngine(), logger)

	// Loading is synchronous and fatal on failure: the process must not serve
	// inference traffic without a model handle.
	loadCtx, cancelLoad := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := srv.Load(loadCtx)
	cancelLoad()
	if err != nil {
		logger.Error().Err(err).Msg("model load failed")
		return fmt.Errorf("model load failed: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn().Err(err).Msg("close session")
		}
	}()

	httpapi.SetLogger(logger)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSAllowedOrigins(cfg.CORSAllowedOrigins)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewMux(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	banner(logger, cfg)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	// Cancel in-flight inference, then drain connections.
	cancelBase()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown")
	}
	return nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	var out io.Writer = os.Stderr
	if cfg.Debug {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "vlmd").Logger()
}

func banner(logger zerolog.Logger, cfg config.Config) {
	base := "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	logger.Info().
		Str("model_path", cfg.ModelPath).
		Str("conv_mode", cfg.ConvMode).
		Str("health", base+"/health").
		Str("infer", base+"/infer").
		Str("config", base+"/config").
		Msg("vlmd listening")
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
