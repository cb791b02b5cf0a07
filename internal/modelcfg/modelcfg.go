// Package modelcfg inspects a model artifacts directory: it validates the
// path, derives the model name, locates weight and projector files, and reads
// the multimodal options from config.json when present.
package modelcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vlmd/internal/common/fsutil"
)

const defaultContextLength = 2048

// Info summarizes the model artifacts found at a path.
type Info struct {
	// Absolute path to the artifacts directory.
	Path string
	// Model name derived from the path.
	Name string
	// Path to the quantized weights file, empty when none was found.
	WeightsPath string
	// Path to the multimodal projector file, empty when none was found.
	ProjectorPath string
	// Whether prompts must wrap the image token with <im_start>/<im_end>.
	MMUseImStartEnd bool
	// Maximum sequence length supported by the model.
	ContextLength int
}

// modelConfig mirrors the subset of config.json vlmd cares about.
type modelConfig struct {
	MMUseImStartEnd   bool `json:"mm_use_im_start_end"`
	MaxSequenceLength int  `json:"max_sequence_length"`
}

// Inspect validates the model path and collects artifact metadata.
func Inspect(path string) (Info, error) {
	base, err := fsutil.ExpandHome(path)
	if err != nil {
		return Info{}, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return Info{}, fmt.Errorf("abs path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Info{}, fmt.Errorf("model path does not exist: %s", abs)
	}

	info := Info{
		Path:          abs,
		Name:          NameFromPath(abs),
		ContextLength: defaultContextLength,
	}

	if !fi.IsDir() {
		// A bare weights file is acceptable; there is no config.json to read.
		info.WeightsPath = abs
		return info, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return Info{}, fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if !strings.HasSuffix(name, ".gguf") {
			continue
		}
		p := filepath.Join(abs, e.Name())
		if strings.HasPrefix(name, "mmproj") {
			if info.ProjectorPath == "" {
				info.ProjectorPath = p
			}
			continue
		}
		if info.WeightsPath == "" {
			info.WeightsPath = p
		}
	}

	if cfg, ok := readModelConfig(filepath.Join(abs, "config.json")); ok {
		info.MMUseImStartEnd = cfg.MMUseImStartEnd
		if cfg.MaxSequenceLength > 0 {
			info.ContextLength = cfg.MaxSequenceLength
		}
	}
	return info, nil
}

// NameFromPath derives a model name from its path. Checkpoint directories keep
// their parent name as a prefix so intermediate snapshots stay identifiable.
func NameFromPath(path string) string {
	trimmed := strings.TrimRight(path, "/")
	parts := strings.Split(trimmed, "/")
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "checkpoint-") && len(parts) > 1 {
		return parts[len(parts)-2] + "_" + last
	}
	return last
}

func readModelConfig(path string) (modelConfig, bool) {
	var cfg modelConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, false
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, false
	}
	return cfg, true
}
