package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vlmd/pkg/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.HealthResponse{Status: "healthy", ModelLoaded: true, Device: "cpu"})
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.ConfigResponse{ModelPath: "/models/m", ConvMode: "qwen_2", Device: "cpu", ModelLoaded: true})
	})
	mux.HandleFunc("/infer", func(w http.ResponseWriter, r *http.Request) {
		var req types.InferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.ImageBase64 == "" {
			t.Fatal("missing image payload")
		}
		result := "a tiny test image"
		json.NewEncoder(w).Encode(types.InferResponse{Success: true, Result: &result, InferenceTime: 0.1})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthCommand(t *testing.T) {
	ts := newTestServer(t)
	var out bytes.Buffer
	root := buildRootCmd(&out)
	root.SetArgs([]string{"health", "--server", ts.URL})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "status: healthy") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestConfigCommandJSON(t *testing.T) {
	ts := newTestServer(t)
	var out bytes.Buffer
	root := buildRootCmd(&out)
	root.SetArgs([]string{"config", "--server", ts.URL, "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var resp types.ConfigResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out.String())
	}
	if resp.ModelPath != "/models/m" {
		t.Fatalf("unexpected config: %+v", resp)
	}
}

func TestInferCommand(t *testing.T) {
	ts := newTestServer(t)
	dir := t.TempDir()
	img := filepath.Join(dir, "shot.png")
	if err := os.WriteFile(img, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	var out bytes.Buffer
	root := buildRootCmd(&out)
	root.SetArgs([]string{"infer", img, "--server", ts.URL, "-p", "describe"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "a tiny test image") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestInferCommandMissingFile(t *testing.T) {
	ts := newTestServer(t)
	var out bytes.Buffer
	root := buildRootCmd(&out)
	root.SetArgs([]string{"infer", "/nonexistent/shot.png", "--server", ts.URL})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for missing image file")
	}
}
