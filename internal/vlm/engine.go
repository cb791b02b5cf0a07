package vlm

import (
	"context"

	"vlmd/internal/modelcfg"
	"vlmd/pkg/types"
)

// Engine abstracts the pretrained-model runtime. Concrete implementations
// (e.g. llama.cpp via yzma) satisfy this interface; tests substitute fakes.
type Engine interface {
	// Load reads the model artifacts and returns a ready Session. It is called
	// exactly once per process; there is no unload/reload transition.
	Load(info modelcfg.Info, opts LoadOptions) (Session, error)
}

// Session is a loaded model handle. Implementations own whatever serialization
// their native runtime requires; callers may invoke Generate concurrently.
type Session interface {
	// Generate runs one prompt+image generation and returns the decoded text.
	// Implementations must return promptly when the context is canceled.
	Generate(ctx context.Context, prompt string, image []byte, params SamplingParams) (string, error)
	// Close releases the native resources backing the session.
	Close() error
}

// LoadOptions captures engine construction parameters beyond the artifact
// paths themselves.
type LoadOptions struct {
	// Optional base model path for delta checkpoints.
	ModelBase string
	// Compute device name (metal, cuda, cpu).
	Device string
	// Directory holding the engine's shared libraries.
	LibPath string
	// Worker threads; 0 lets the engine decide.
	Threads int
	// Context window override; 0 uses the model's limit.
	ContextWindow int
}

// Built reports whether this binary was compiled with the native engine
// (build tag 'llama'). Default builds carry a stub that refuses to load.
func Built() bool { return vlmBuilt }

// Sampling defaults applied when the request omits a parameter.
const (
	DefaultTemperature = 0.2
	DefaultTopP        = 0.9
	DefaultNumBeams    = 1
	DefaultMaxTokens   = 256
)

// SamplingParams controls text generation randomness and length.
type SamplingParams struct {
	Temperature float64
	TopP        float64
	NumBeams    int
	MaxTokens   int
}

// Greedy reports whether sampling is disabled (deterministic decoding).
func (p SamplingParams) Greedy() bool { return p.Temperature == 0 }

// ParamsFromRequest maps request fields to SamplingParams, applying defaults
// for omitted fields. An explicit zero is kept as-is: temperature 0 means
// greedy decoding, not "use the default".
func ParamsFromRequest(req types.InferRequest) SamplingParams {
	p := SamplingParams{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		NumBeams:    DefaultNumBeams,
		MaxTokens:   DefaultMaxTokens,
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		p.TopP = *req.TopP
	}
	if req.NumBeams != nil {
		p.NumBeams = *req.NumBeams
	}
	if req.MaxTokens != nil {
		p.MaxTokens = *req.MaxTokens
	}
	return p
}
