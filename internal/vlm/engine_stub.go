//go:build !llama

package vlm

// This file provides a stub engine compiled when the 'llama' build tag is NOT
// set, keeping default builds and CI free of native llama.cpp libraries. The
// real engine lives in engine_llama.go (tagged 'llama').

import (
	"vlmd/internal/modelcfg"
)

// vlmBuilt indicates whether this binary was compiled with real engine support.
var vlmBuilt = false

type stubEngine struct{}

// NewEngine returns an engine that refuses to load without the 'llama' build
// tag. This avoids any mocked inference in production binaries.
func NewEngine() Engine { return stubEngine{} }

func (stubEngine) Load(info modelcfg.Info, opts LoadOptions) (Session, error) {
	return nil, ErrLoad("vlm support not built (missing 'llama' build tag)")
}
