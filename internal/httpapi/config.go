package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON
// endpoints. The default allows base64-encoded screenshots.
var maxBodyBytes int64 = 8 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 8 << 20
		return
	}
	maxBodyBytes = n
}

// corsAllowedOrigins restricts cross-origin callers. Empty allows all.
var corsAllowedOrigins []string

// SetCORSAllowedOrigins configures CORS behavior for the HTTP server.
func SetCORSAllowedOrigins(origins []string) {
	corsAllowedOrigins = append([]string(nil), origins...)
}
