package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vlmd/internal/vlm"
	"vlmd/pkg/types"
)

// mockService implements Service for handler tests.
type mockService struct {
	health  types.HealthResponse
	config  types.ConfigResponse
	ready   bool
	inferFn func(ctx context.Context, req types.InferRequest) (types.InferResponse, error)
}

func (m *mockService) Health() types.HealthResponse     { return m.health }
func (m *mockService) ConfigInfo() types.ConfigResponse { return m.config }
func (m *mockService) Ready() bool                      { return m.ready }
func (m *mockService) Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
	if m.inferFn != nil {
		return m.inferFn(ctx, req)
	}
	return types.InferResponse{}, errors.New("not implemented")
}

func postInfer(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/infer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInfer(t *testing.T, rec *httptest.ResponseRecorder) types.InferResponse {
	t.Helper()
	var resp types.InferResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode infer response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	svc := &mockService{health: types.HealthResponse{Status: "healthy", ModelLoaded: true, Device: "cpu"}}
	h := NewMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp types.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || !resp.ModelLoaded || resp.Device != "cpu" {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
}

func TestHealthEndpointNilService(t *testing.T) {
	h := NewMux(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("health must always be 200, got %d", rec.Code)
	}
	var resp types.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Fatalf("expected unhealthy, got %q", resp.Status)
	}
}

func TestConfigEndpoint(t *testing.T) {
	svc := &mockService{config: types.ConfigResponse{
		ModelPath: "/models/m", ConvMode: "qwen_2", Device: "cpu", ModelLoaded: true,
	}}
	h := NewMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp types.ConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ModelPath != "/models/m" || resp.ConvMode != "qwen_2" {
		t.Fatalf("unexpected config payload: %+v", resp)
	}
}

func TestConfigEndpointNilService(t *testing.T) {
	h := NewMux(nil)
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Error, "not initialized") {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestInferContentTypeRequired(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodPost, "/infer", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestInferInvalidJSON(t *testing.T) {
	h := NewMux(&mockService{})
	rec := postInfer(t, h, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeInfer(t, rec)
	if resp.Success || resp.Result != nil || resp.InferenceTime != 0 {
		t.Fatalf("failure envelope malformed: %+v", resp)
	}
	if resp.Error == nil || !strings.Contains(*resp.Error, "invalid JSON") {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

func TestInferPromptRequired(t *testing.T) {
	h := NewMux(&mockService{})
	rec := postInfer(t, h, `{"image_base64":"aGVsbG8="}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeInfer(t, rec)
	if resp.Error == nil || !strings.Contains(*resp.Error, "prompt") {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

func TestInferImageRequired(t *testing.T) {
	h := NewMux(&mockService{})
	rec := postInfer(t, h, `{"prompt":"describe"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeInfer(t, rec)
	if resp.Error == nil || !strings.Contains(*resp.Error, "image data") {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

func TestInferNotLoaded(t *testing.T) {
	svc := &mockService{inferFn: func(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
		return types.InferResponse{}, vlm.ErrNotLoaded()
	}}
	h := NewMux(svc)
	rec := postInfer(t, h, `{"prompt":"describe","image_base64":"aGVsbG8="}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	resp := decodeInfer(t, rec)
	if resp.Success {
		t.Fatal("expected success=false")
	}
	if resp.Error == nil || *resp.Error != "model not loaded" {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

type statusErr struct {
	msg  string
	code int
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) StatusCode() int { return e.code }

func TestInferHTTPErrorMapping(t *testing.T) {
	svc := &mockService{inferFn: func(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
		return types.InferResponse{}, statusErr{msg: "too busy", code: http.StatusServiceUnavailable}
	}}
	h := NewMux(svc)
	rec := postInfer(t, h, `{"prompt":"describe","image_base64":"aGVsbG8="}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp := decodeInfer(t, rec)
	if resp.Error == nil || *resp.Error != "too busy" {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

func TestInferSuccess(t *testing.T) {
	var got types.InferRequest
	result := "a red apple"
	svc := &mockService{inferFn: func(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
		got = req
		return types.InferResponse{Success: true, Result: &result, InferenceTime: 0.5}, nil
	}}
	h := NewMux(svc)
	rec := postInfer(t, h, `{"prompt":"describe","image_base64":"aGVsbG8=","temperature":0.7}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeInfer(t, rec)
	if !resp.Success || resp.Result == nil || *resp.Result != "a red apple" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.InferenceTime != 0.5 {
		t.Fatalf("unexpected inference_time: %v", resp.InferenceTime)
	}
	if got.Prompt != "describe" || got.ImageBase64 != "aGVsbG8=" {
		t.Fatalf("request not passed through: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.7 {
		t.Fatalf("temperature not passed through: %v", got.Temperature)
	}
}

func TestInferGenerationFailureEnvelope(t *testing.T) {
	// Handled generation failures come back as a 200-level envelope from the
	// service, not as a transport error.
	msg := "generation failed: decode error"
	svc := &mockService{inferFn: func(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
		return types.InferResponse{Success: false, Result: nil, InferenceTime: 0, Error: &msg}, nil
	}}
	h := NewMux(svc)
	rec := postInfer(t, h, `{"prompt":"describe","image_base64":"aGVsbG8="}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeInfer(t, rec)
	if resp.Success || resp.Result != nil || resp.InferenceTime != 0 {
		t.Fatalf("failure envelope malformed: %+v", resp)
	}
	if resp.Error == nil || *resp.Error != msg {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

func TestInferBodyTooLarge(t *testing.T) {
	SetMaxBodyBytes(64)
	defer SetMaxBodyBytes(0)

	h := NewMux(&mockService{})
	body := `{"prompt":"describe","image_base64":"` + strings.Repeat("A", 256) + `"}`
	rec := postInfer(t, h, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before load, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("loading")) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	svc.ready = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after load, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
