package web

import (
	"net/http"
	"time"

	"github.com/creditarchitect/dispatch-app/dispatch/utils"
)

// NewServer builds the API server with env-tunable timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(utils.GetEnvInt("API_READ_TIMEOUT_SECONDS", 10)) * time.Second,
		WriteTimeout: time.Duration(utils.GetEnvInt("API_WRITE_TIMEOUT_SECONDS", 20)) * time.Second,
		IdleTimeout:  time.Duration(utils.GetEnvInt("API_IDLE_TIMEOUT_SECONDS", 120)) * time.Second,
	}
}
