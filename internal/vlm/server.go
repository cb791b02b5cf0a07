package vlm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vlmd/internal/conv"
	"vlmd/internal/modelcfg"
	"vlmd/pkg/types"
)

// State represents the adapter lifecycle. There are exactly two states with a
// single one-way transition triggered by a successful Load.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoaded   State = "loaded"
)

// ServerConfig holds the startup parameters the adapter needs.
type ServerConfig struct {
	ModelPath     string
	ModelBase     string
	ConvMode      string
	Device        string
	LibPath       string
	Threads       int
	ContextWindow int
}

// Server owns the single model handle. The handle is created once by Load and
// read-only afterwards; handler goroutines may call Infer concurrently.
type Server struct {
	mu      sync.RWMutex
	state   State
	session Session
	info    modelcfg.Info
	tpl     conv.Template

	cfg    ServerConfig
	engine Engine
	log    zerolog.Logger
}

// NewServer constructs an unloaded adapter around the given engine.
func NewServer(cfg ServerConfig, engine Engine, log zerolog.Logger) *Server {
	return &Server{
		state:  StateUnloaded,
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
}

// Load inspects the model path and asks the engine for a session. A failure
// leaves the server Unloaded and is fatal to the caller; success transitions
// to Loaded permanently.
func (s *Server) Load(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	tpl, err := conv.Lookup(s.cfg.ConvMode)
	if err != nil {
		return ErrLoad(err.Error())
	}
	info, err := modelcfg.Inspect(s.cfg.ModelPath)
	if err != nil {
		return ErrLoad(err.Error())
	}
	ctxWindow := s.cfg.ContextWindow
	if ctxWindow == 0 {
		ctxWindow = info.ContextLength
	}
	s.log.Info().
		Str("model", info.Name).
		Str("path", info.Path).
		Str("device", s.cfg.Device).
		Str("conv_mode", s.cfg.ConvMode).
		Msg("loading model")
	sess, err := s.engine.Load(info, LoadOptions{
		ModelBase:     s.cfg.ModelBase,
		Device:        s.cfg.Device,
		LibPath:       s.cfg.LibPath,
		Threads:       s.cfg.Threads,
		ContextWindow: ctxWindow,
	})
	if err != nil {
		return ErrLoad(err.Error())
	}

	s.mu.Lock()
	s.session = sess
	s.info = info
	s.tpl = tpl
	s.state = StateLoaded
	s.mu.Unlock()

	s.log.Info().Str("model", info.Name).Msg("model loaded")
	return nil
}

// Ready reports whether the one-way transition to Loaded has happened.
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateLoaded
}

// Health reports the adapter status for GET /health.
func (s *Server) Health() types.HealthResponse {
	loaded := s.Ready()
	status := "unhealthy"
	if loaded {
		status = "healthy"
	}
	return types.HealthResponse{
		Status:      status,
		ModelLoaded: loaded,
		Device:      s.cfg.Device,
	}
}

// ConfigInfo echoes the startup configuration for GET /config.
func (s *Server) ConfigInfo() types.ConfigResponse {
	return types.ConfigResponse{
		ModelPath:   s.cfg.ModelPath,
		ModelBase:   s.cfg.ModelBase,
		ConvMode:    s.cfg.ConvMode,
		Device:      s.cfg.Device,
		ModelLoaded: s.Ready(),
	}
}

// Infer runs one generation. A nil error with Success=false means the failure
// was handled and belongs in the response body; the only non-nil error is the
// not-loaded sentinel, which the HTTP layer maps to 500.
func (s *Server) Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
	s.mu.RLock()
	sess := s.session
	tpl := s.tpl
	useImStartEnd := s.info.MMUseImStartEnd
	loaded := s.state == StateLoaded
	s.mu.RUnlock()
	if !loaded {
		return types.InferResponse{}, ErrNotLoaded()
	}

	id := uuid.New().String()
	start := time.Now()

	img, format, err := decodeImagePayload(req.ImageBase64)
	if err != nil {
		inferenceTotal.WithLabelValues("decode_error").Inc()
		return failure(err), nil
	}

	prompt := tpl.Prompt(conv.WrapImage(req.Prompt, useImStartEnd))
	params := ParamsFromRequest(req)

	s.log.Debug().
		Str("inference_id", id).
		Str("image_format", format).
		Int("image_bytes", len(img)).
		Float64("temperature", params.Temperature).
		Int("max_tokens", params.MaxTokens).
		Msg("inference start")

	text, err := sess.Generate(ctx, prompt, img, params)
	if err != nil {
		inferenceTotal.WithLabelValues("generate_error").Inc()
		s.log.Error().Str("inference_id", id).Err(err).Msg("inference failed")
		return failure(err), nil
	}
	elapsed := time.Since(start).Seconds()
	inferenceTotal.WithLabelValues("success").Inc()
	inferenceDuration.Observe(elapsed)

	s.log.Info().
		Str("inference_id", id).
		Float64("seconds", elapsed).
		Int("chars", len(text)).
		Msg("inference done")

	result := strings.TrimSpace(text)
	return types.InferResponse{
		Success:       true,
		Result:        &result,
		InferenceTime: elapsed,
	}, nil
}

// Close releases the session. Only called at process exit.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// failure builds the no-partial-result error envelope: success=false, zero
// elapsed time, flattened message.
func failure(err error) types.InferResponse {
	msg := err.Error()
	return types.InferResponse{
		Success:       false,
		Result:        nil,
		InferenceTime: 0,
		Error:         &msg,
	}
}
