package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:5000", Addr("0.0.0.0", 5000))
	assert.Equal(t, ":8080", Addr("", 8080))
}

func TestNewRouter_CORSOnlyWhenConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	preflight := func(r *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://crm.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight(NewRouter(Options{AllowOrigins: []string{"https://crm.example.com"}}))
	assert.Equal(t, "https://crm.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(NewRouter(Options{}))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartHTTP_ShutdownIsClean(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := BuildServer(addr, http.NotFoundHandler(), time.Second, time.Second, time.Second)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)

	done := make(chan error, 1)
	go func() { done <- StartHTTP(srv, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, Shutdown(srv, time.Second))
	assert.NoError(t, <-done)
}
