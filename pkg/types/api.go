package types

// InferRequest represents an inference request payload.
type InferRequest struct {
	// Required prompt text describing what to ask about the image.
	// example: What is shown in this image?
	Prompt string `json:"prompt" example:"What is shown in this image?"`
	// Required base64-encoded image payload (JPEG or PNG).
	// example: /9j/4AAQSkZJRg...
	ImageBase64 string `json:"image_base64" example:"/9j/4AAQSkZJRg..."`
	// Sampling temperature. 0 selects deterministic (greedy) decoding.
	// Omitted defaults to 0.2.
	// example: 0.2
	Temperature *float64 `json:"temperature,omitempty" example:"0.2"`
	// Nucleus sampling probability. Omitted defaults to 0.9.
	// example: 0.9
	TopP *float64 `json:"top_p,omitempty" example:"0.9"`
	// Beam count for beam search. Omitted defaults to 1.
	// example: 1
	NumBeams *int `json:"num_beams,omitempty" example:"1"`
	// Maximum number of new tokens to generate. Omitted defaults to 256.
	// example: 256
	MaxTokens *int `json:"max_tokens,omitempty" example:"256"`
}

// InferResponse is returned by POST /infer for both successful and failed
// generations. Validation failures reuse the same envelope so the game-engine
// client can parse every /infer reply the same way.
type InferResponse struct {
	// Whether generation produced a result.
	// example: true
	Success bool `json:"success"`
	// Generated text, null on failure.
	// example: A wooden table with a red apple on it.
	Result *string `json:"result" example:"A wooden table with a red apple on it."`
	// Wall-clock generation time in seconds. Zero on failure.
	// example: 0.84
	InferenceTime float64 `json:"inference_time" example:"0.84"`
	// Error message, null on success.
	Error *string `json:"error"`
}

// HealthResponse is returned by GET /health (always 200).
type HealthResponse struct {
	// Overall status: "healthy" once the model is loaded, otherwise "unhealthy".
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Whether the model handle has been loaded.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Compute device backing the model (metal, cuda, cpu).
	// example: cuda
	Device string `json:"device" example:"cuda"`
}

// ConfigResponse echoes the startup configuration via GET /config.
type ConfigResponse struct {
	// Filesystem path to the model artifacts.
	// example: /models/fastvlm-1.5b
	ModelPath string `json:"model_path" example:"/models/fastvlm-1.5b"`
	// Optional base model path, empty when not set.
	ModelBase string `json:"model_base"`
	// Conversation template identifier.
	// example: qwen_2
	ConvMode string `json:"conv_mode" example:"qwen_2"`
	// Compute device backing the model.
	// example: cuda
	Device string `json:"device" example:"cuda"`
	// Whether the model handle has been loaded.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
}

// ErrorResponse is the JSON error payload used by non-infer endpoints.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
