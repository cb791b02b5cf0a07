//go:build llama

package vlm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hybridgroup/yzma/pkg/llama"
	"github.com/hybridgroup/yzma/pkg/mtmd"

	"vlmd/internal/conv"
	"vlmd/internal/modelcfg"
)

// vlmBuilt indicates whether this binary was compiled with real engine support.
var vlmBuilt = true

var (
	libOnce sync.Once
	libErr  error
)

// loadLibraries resolves the llama.cpp shared libraries once per process.
func loadLibraries(libPath string) error {
	libOnce.Do(func() {
		if err := llama.Load(libPath); err != nil {
			libErr = fmt.Errorf("unable to load llama library: %w", err)
			return
		}
		if err := mtmd.Load(libPath); err != nil {
			libErr = fmt.Errorf("unable to load mtmd library: %w", err)
			return
		}
		llama.Init()
		llama.LogSet(llama.LogSilent())
		mtmd.LogSet(llama.LogSilent())
	})
	return libErr
}

type llamaEngine struct{}

// NewEngine returns the yzma-backed multimodal engine.
func NewEngine() Engine { return llamaEngine{} }

func (llamaEngine) Load(info modelcfg.Info, opts LoadOptions) (Session, error) {
	if err := loadLibraries(opts.LibPath); err != nil {
		return nil, err
	}
	if info.WeightsPath == "" {
		return nil, fmt.Errorf("no weights file (*.gguf) under %s", info.Path)
	}
	if info.ProjectorPath == "" {
		return nil, fmt.Errorf("no multimodal projector (mmproj*.gguf) under %s", info.Path)
	}

	mparams := llama.ModelDefaultParams()
	if opts.Device != "" && opts.Device != "cpu" {
		dev := llama.GGMLBackendDeviceByName(opts.Device)
		if dev == 0 {
			return nil, fmt.Errorf("unknown device: %s", opts.Device)
		}
		mparams.SetDevices([]llama.GGMLBackendDevice{dev})
	}
	mdl, err := llama.ModelLoadFromFile(info.WeightsPath, mparams)
	if err != nil {
		return nil, fmt.Errorf("ModelLoadFromFile: %w", err)
	}

	ctxParams := llama.ContextDefaultParams()
	if opts.ContextWindow > 0 {
		ctxParams.NCtx = uint32(opts.ContextWindow)
		ctxParams.NUbatch = uint32(opts.ContextWindow)
	}
	if opts.Threads > 0 {
		ctxParams.NThreads = int32(opts.Threads)
		ctxParams.NThreadsBatch = int32(opts.Threads)
	}

	return &llamaSession{
		model:     mdl,
		vocab:     llama.ModelGetVocab(mdl),
		ctxParams: ctxParams,
		projFile:  info.ProjectorPath,
	}, nil
}

// llamaSession owns the loaded model. The native context and mtmd helper
// calls are not thread-safe, so generations are serialized on mu.
type llamaSession struct {
	mu        sync.Mutex
	model     llama.Model
	vocab     llama.Vocab
	ctxParams llama.ContextParams
	projFile  string
	closed    bool
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, image []byte, params SamplingParams) (string, error) {
	if params.NumBeams > 1 {
		return "", fmt.Errorf("beam search is not supported by this engine (num_beams=%d)", params.NumBeams)
	}
	if len(image) == 0 {
		return "", fmt.Errorf("empty image payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lctx, err := llama.InitFromModel(s.model, s.ctxParams)
	if err != nil {
		return "", fmt.Errorf("unable to init context from model: %w", err)
	}
	defer func() {
		llama.Synchronize(lctx)
		llama.Free(lctx)
	}()

	mctxParams := mtmd.ContextParamsDefault()
	mctxParams.UseGPU = true
	mctxParams.FlashAttentionType = llama.FlashAttentionTypeAuto
	mtmdCtx, err := mtmd.InitFromFile(s.projFile, s.model, mctxParams)
	if err != nil {
		return "", fmt.Errorf("unable to init projector: %w", err)
	}
	defer mtmd.Free(mtmdCtx)

	// mtmd reads media from files; stage the decoded payload in a temp file.
	tmp, err := os.CreateTemp("", "vlmd-*.img")
	if err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("stage image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}

	bitmap := mtmd.BitmapInitFromFile(mtmdCtx, tmp.Name())
	defer mtmd.BitmapFree(bitmap)

	// The template placed conv.ImageToken; mtmd expects its own media marker.
	text := strings.Replace(prompt, conv.ImageToken, mtmd.DefaultMarker(), 1)
	output := mtmd.InputChunksInit()
	input := mtmd.NewInputText(text, true, true)
	mtmd.Tokenize(mtmdCtx, output, input, []mtmd.Bitmap{bitmap})

	var n llama.Pos
	mtmd.HelperEvalChunks(mtmdCtx, lctx, output, 0, 0, int32(s.ctxParams.NBatch), true, &n)

	sampler := newSampler(params)
	return s.decodeLoop(ctx, lctx, sampler, params.MaxTokens)
}

func (s *llamaSession) decodeLoop(ctx context.Context, lctx llama.Context, sampler llama.Sampler, maxTokens int) (string, error) {
	const bufferSize = 32 * 1024
	buf := make([]byte, bufferSize)
	var b strings.Builder

	token := llama.SamplerSample(sampler, lctx, -1)
	for generated := 0; generated < maxTokens; generated++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if llama.VocabIsEOG(s.vocab, token) {
			break
		}
		l := llama.TokenToPiece(s.vocab, token, buf, 0, false)
		piece := string(buf[:l])
		if piece == "" {
			break
		}
		b.WriteString(piece)

		batch := llama.BatchGetOne([]llama.Token{token})
		llama.Decode(lctx, batch)
		token = llama.SamplerSample(sampler, lctx, -1)
	}
	return b.String(), nil
}

func (s *llamaSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	llama.ModelFree(s.model)
	llama.BackendFree()
	return nil
}

// newSampler builds the sampler chain. Temperature 0 selects pure greedy
// decoding so identical requests produce identical output.
func newSampler(p SamplingParams) llama.Sampler {
	chain := llama.SamplerChainInit(llama.SamplerChainDefaultParams())
	if p.Greedy() {
		llama.SamplerChainAdd(chain, llama.SamplerInitGreedy())
		return chain
	}
	if p.TopP > 0 && p.TopP < 1 {
		llama.SamplerChainAdd(chain, llama.SamplerInitTopP(float32(p.TopP), 0))
	}
	llama.SamplerChainAdd(chain, llama.SamplerInitTempExt(float32(p.Temperature), 0, 1.0))
	llama.SamplerChainAdd(chain, llama.SamplerInitDist(llama.DefaultSeed))
	return chain
}
