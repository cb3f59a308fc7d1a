package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestIdempotency_FirstRequestPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, rmock := redismock.NewClientMock()

	rmock.ExpectSetNX("idempotency:abc-123", 1, 24*time.Hour).SetVal(true)

	r := gin.New()
	r.POST("/leaves", Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
	req.Header.Set("Idempotency-Key", "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestIdempotency_ReplayRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, rmock := redismock.NewClientMock()

	rmock.ExpectSetNX("idempotency:abc-123", 1, 24*time.Hour).SetVal(false)

	r := gin.New()
	r.POST("/leaves", Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
	req.Header.Set("Idempotency-Key", "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestIdempotency_NoHeaderSkipsRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, rmock := redismock.NewClientMock()

	r := gin.New()
	r.POST("/leaves", Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestIdempotency_KeyReleasedOnServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, rmock := redismock.NewClientMock()

	rmock.ExpectSetNX("idempotency:abc-123", 1, 24*time.Hour).SetVal(true)
	rmock.ExpectDel("idempotency:abc-123").SetVal(1)

	r := gin.New()
	r.POST("/leaves", Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
	req.Header.Set("Idempotency-Key", "abc-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, rmock.ExpectationsWereMet())
}
