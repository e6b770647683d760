package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRequestIDRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		*captured = GetRequestID(c)
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestIDGeneratesIdentifier(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rr.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("expected a generated request id header")
	}
	if _, err := uuid.Parse(header); err != nil {
		t.Fatalf("expected a uuid, got %q: %v", header, err)
	}
	if captured != header {
		t.Fatalf("context id %q does not match header %q", captured, header)
	}
}

func TestRequestIDPropagatesClientValue(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Fatalf("expected client id to be echoed, got %q", got)
	}
	if captured != "client-supplied-id" {
		t.Fatalf("expected client id in context, got %q", captured)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := GetRequestID(c); got != "" {
		t.Fatalf("expected empty id without middleware, got %q", got)
	}
}
