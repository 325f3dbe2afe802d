package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"compare-service/backend/internal/compare"
)

func TestETag(t *testing.T) {
	a := ETag([]byte("hello"))
	assert.Equal(t, a, ETag([]byte("hello")))
	assert.NotEqual(t, a, ETag([]byte("hello!")))
	assert.True(t, strings.HasPrefix(a, `"`) && strings.HasSuffix(a, `"`))
	assert.Len(t, a, 34)
}

func TestMatch(t *testing.T) {
	etag := ETag([]byte("x"))
	assert.False(t, match("", etag))
	assert.True(t, match(etag, etag))
	assert.True(t, match(`"other", `+etag, etag))
	assert.True(t, match("*", etag))
	assert.False(t, match(`"other"`, etag))
}

type failingSubmitter struct{}

func (failingSubmitter) Submit(ctx context.Context, req compare.ComparisonRequest) (*compare.Result, error) {
	return nil, errors.New("db down")
}

func TestCompare_InternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewCompareHandler(failingSubmitter{})
	r := gin.New()
	r.GET("/compare", h.Page())
	r.GET("/v1/compare", h.API())

	for _, target := range []string{"/compare?rev1=1", "/v1/compare?rev1=1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code, target)
		assert.NotContains(t, w.Body.String(), "db down")
	}
}
