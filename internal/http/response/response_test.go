package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
)

func TestRespondAPIErrorMapsCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domainagg.NewError(domainagg.CodeNotFound, "op", "document not found", nil), http.StatusNotFound, "not_found"},
		{domainagg.NewError(domainagg.CodeValidation, "op", "bad", nil), http.StatusBadRequest, "validation"},
		{domainagg.NewError(domainagg.CodeConflict, "op", "stale", nil), http.StatusConflict, "conflict"},
		{domainagg.NewError(domainagg.CodeForbidden, "op", "no", nil), http.StatusForbidden, "forbidden"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondAPIError(c, tc.err)

		if rec.Code != tc.status {
			t.Fatalf("%v: status want=%d got=%d", tc.err, tc.status, rec.Code)
		}
		var env errorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Error.Code != tc.code {
			t.Fatalf("%v: code want=%s got=%s", tc.err, tc.code, env.Error.Code)
		}
		if tc.status == http.StatusInternalServerError && env.Error.Message != "internal error" {
			t.Fatalf("internal errors must not leak details, got=%q", env.Error.Message)
		}
	}
}
