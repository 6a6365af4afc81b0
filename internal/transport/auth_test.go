package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestOperatorMiddleware(t *testing.T) {
	var got string
	var found bool

	r := gin.New()
	r.Use(OperatorMiddleware())
	r.GET("/", func(c *gin.Context) {
		got, found = OperatorFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OperatorHeader, "  alice ")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, found)
	require.Equal(t, "alice", got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, found)
}

func TestOperatorOr(t *testing.T) {
	require.Equal(t, "bob", operatorOr(context.Background(), " bob "))
	require.Equal(t, "alice", operatorOr(WithOperator(context.Background(), "alice"), "bob"))
	require.Equal(t, "bob", operatorOr(WithOperator(context.Background(), ""), "bob"))
}
