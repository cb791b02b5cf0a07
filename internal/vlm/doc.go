// Package vlm owns the inference adapter: a single loaded vision-language
// model handle and the request path from decoded image + prompt to generated
// text. It is structured into small files by concern:
//
//   - engine.go: Engine/Session interfaces and SamplingParams.
//   - errors.go: error types and helpers (IsNotLoaded, IsLoadError).
//   - server.go: Server type, one-way Unloaded -> Loaded lifecycle, Infer.
//   - image.go: base64 payload decode and image validation.
//   - metrics.go: Prometheus inference metrics.
//
// Build tags and runtimes:
//
//   - Default builds compile a stub engine (engine_stub.go) that refuses to
//     load, keeping CI free of native libraries.
//   - `-tags=llama` compiles the yzma-backed engine (engine_llama.go) that
//     drives llama.cpp with its multimodal (mtmd) projector support.
//
// External packages should use public methods only (NewServer, Load, Infer,
// Health, ConfigInfo). Internal types are subject to change.
package vlm
