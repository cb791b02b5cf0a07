package vlm

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	// Register the decoders for the formats the game-engine client captures.
	_ "image/jpeg"
	_ "image/png"
)

// decodeImagePayload turns a base64 transport field into raw image bytes,
// verifying the payload is a decodable image before it reaches the engine.
func decodeImagePayload(b64 string) ([]byte, string, error) {
	cleaned := strings.TrimSpace(b64)
	// Some clients send data URLs; keep only the payload.
	if idx := strings.IndexByte(cleaned, ','); idx >= 0 && strings.HasPrefix(cleaned, "data:") {
		cleaned = cleaned[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 image data: %w", err)
		}
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("undecodable image payload: %w", err)
	}
	return raw, format, nil
}
