package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/service"
)

func TestRequireTokenType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(&config.Config{JWTSecret: "jwt-test", JWTExpiry: time.Hour})
	expired := service.NewAuthService(&config.Config{JWTSecret: "jwt-test", JWTExpiry: -time.Hour})

	student, _ := auth.IssueToken(service.TokenTypeStudent, 5, 2, "Ani")
	grader, _ := auth.IssueToken(service.TokenTypeGrader, 1, 0, "Pak Budi")
	stale, _ := expired.IssueToken(service.TokenTypeStudent, 5, 2, "Ani")
	foreign, _ := service.NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}).
		IssueToken(service.TokenTypeStudent, 5, 2, "Ani")

	r := gin.New()
	r.GET("/student", RequireStudentJWT(auth), func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID, "class": claims.Student().ClassID})
	})
	r.GET("/grader", RequireGraderJWT(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name   string
		path   string
		header string
		query  string
		want   int
	}{
		{"student header", "/student", "Bearer " + student, "", http.StatusOK},
		{"lowercase scheme", "/student", "bearer " + student, "", http.StatusOK},
		{"student query token", "/student", "", student, http.StatusOK},
		{"no token", "/student", "", "", http.StatusUnauthorized},
		{"expired", "/student", "Bearer " + stale, "", http.StatusUnauthorized},
		{"wrong secret", "/student", "Bearer " + foreign, "", http.StatusUnauthorized},
		{"grader on student route", "/student", "Bearer " + grader, "", http.StatusForbidden},
		{"student on grader route", "/grader", "Bearer " + student, "", http.StatusForbidden},
		{"grader route", "/grader", "Bearer " + grader, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestNoStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", NoStore(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}
