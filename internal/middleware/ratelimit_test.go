package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/service"
)

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis unavailable")
}

func limitedEngine(rl *RateLimiter, studentID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if studentID > 0 {
			c.Set(ContextKeyClaims, &service.Claims{TokenType: service.TokenTypeStudent, UserID: studentID})
		}
		c.Next()
	})
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r *gin.Engine) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func TestRateLimiter(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 8, 0, 30, 0, time.UTC)

	tests := []struct {
		name      string
		counter   WindowCounter
		limit     int
		studentID int
		want      []int
	}{
		{
			name:      "blocks after limit",
			counter:   NewMemoryWindowCounter(),
			limit:     2,
			studentID: 1,
			want:      []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests},
		},
		{
			name:      "falls back to client ip",
			counter:   NewMemoryWindowCounter(),
			limit:     1,
			want:      []int{http.StatusNoContent, http.StatusTooManyRequests},
		},
		{
			name:      "zero limit disables",
			counter:   NewMemoryWindowCounter(),
			limit:     0,
			studentID: 1,
			want:      []int{http.StatusNoContent, http.StatusNoContent, http.StatusNoContent},
		},
		{
			name:      "counter failure lets requests through",
			counter:   failingCounter{},
			limit:     1,
			studentID: 1,
			want:      []int{http.StatusNoContent, http.StatusNoContent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.counter, tt.limit, time.Minute, zerolog.Nop())
			rl.now = func() time.Time { return fixed }
			r := limitedEngine(rl, tt.studentID)

			for i, want := range tt.want {
				if got := hit(r); got != want {
					t.Fatalf("request %d: status = %d, want %d", i+1, got, want)
				}
			}
		})
	}
}

func TestRateLimiter_NewWindowResets(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(NewMemoryWindowCounter(), 1, time.Minute, zerolog.Nop())
	rl.now = func() time.Time { return now }
	r := limitedEngine(rl, 3)

	if got := hit(r); got != http.StatusNoContent {
		t.Fatalf("first request: status = %d", got)
	}
	if got := hit(r); got != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", got)
	}

	now = now.Add(time.Minute)
	if got := hit(r); got != http.StatusNoContent {
		t.Fatalf("next window: status = %d, want 204", got)
	}
}

func TestMemoryWindowCounter_Expires(t *testing.T) {
	c := NewMemoryWindowCounter()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, _ := c.Incr(ctx, "k", time.Hour)
		if got != want {
			t.Fatalf("Incr = %d, want %d", got, want)
		}
	}

	n, _ := c.Incr(ctx, "short", time.Nanosecond)
	if n != 1 {
		t.Fatalf("Incr(short) = %d, want 1", n)
	}
	time.Sleep(time.Millisecond)
	if n, _ := c.Incr(ctx, "short", time.Nanosecond); n != 1 {
		t.Errorf("expired key counted %d, want restart at 1", n)
	}
}
