package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		origins []string
		origin  string
		allowed bool
	}{
		{nil, "http://localhost:5173", true},
		{[]string{"https://scd.example.com"}, "https://scd.example.com", true},
		{[]string{"https://scd.example.com"}, "http://localhost:5173", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.origin, func(t *testing.T) {
			t.Parallel()
			r := gin.New()
			r.Use(CORS(tc.origins))
			r.OPTIONS("/api/scds", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/scds", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed && got != tc.origin {
				t.Fatalf("unexpected allow-origin header: got=%q want=%q", got, tc.origin)
			}
			if !tc.allowed && got != "" {
				t.Fatalf("origin should be refused, got allow-origin=%q", got)
			}
		})
	}
}
