package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		*capture = Value(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestAssignsFreshID(t *testing.T) {
	var got string
	r := newRouter(&got)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, got)
	require.Equal(t, got, w.Header().Get(Header))
}

func TestReusesInboundID(t *testing.T) {
	var got string
	r := newRouter(&got)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(Header, "gateway-7f3a")
	r.ServeHTTP(w, req)

	require.Equal(t, "gateway-7f3a", got)
	require.Equal(t, "gateway-7f3a", w.Header().Get(Header))
}

func TestReplacesHostileInboundID(t *testing.T) {
	var got string
	r := newRouter(&got)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(Header, strings.Repeat("x", 200))
	r.ServeHTTP(w, req)

	require.NotEmpty(t, got)
	require.NotContains(t, got, "xxx")
}
