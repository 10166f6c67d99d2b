package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func brotliEngine(body string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, body) })
	return r
}

func TestBrotli(t *testing.T) {
	large := strings.Repeat(`{"number":1,"answer":"A"},`, 100)

	tests := []struct {
		name       string
		body       string
		acceptBr   bool
		upgrade    bool
		wantBrotli bool
	}{
		{"large body compressed", large, true, false, true},
		{"small body passes through", `{"ok":true}`, true, false, false},
		{"client without br", large, false, false, false},
		{"websocket upgrade untouched", large, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.acceptBr {
				req.Header.Set("Accept-Encoding", "gzip, br")
			}
			if tt.upgrade {
				req.Header.Set("Upgrade", "websocket")
			}
			w := httptest.NewRecorder()
			brotliEngine(tt.body).ServeHTTP(w, req)

			gotBrotli := w.Header().Get("Content-Encoding") == "br"
			if gotBrotli != tt.wantBrotli {
				t.Fatalf("Content-Encoding br = %v, want %v", gotBrotli, tt.wantBrotli)
			}

			got := w.Body.Bytes()
			if gotBrotli {
				decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(got)))
				if err != nil {
					t.Fatalf("decode: %v", err)
				}
				got = decoded
			}
			if string(got) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(got), len(tt.body))
			}
		})
	}
}
