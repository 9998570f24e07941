// Package handler is the serverless entrypoint: every request is served by
// the same router cmd/api runs, built once per instance.
package handler

import (
	"context"
	"net/http"
	"sync"

	"olza-admin/internal/api"
	"olza-admin/internal/config"
	"olza-admin/internal/logger"
)

var (
	once    sync.Once
	router  http.Handler
	initErr error
)

func setup() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	log := logger.New(cfg.LogLevel)

	// The instance is torn down by the platform; nothing is closed here.
	server, _, err := api.Bootstrap(context.Background(), cfg, log)
	if err != nil {
		log.Error("Initialization failed: %v", err)
		initErr = err
		return
	}
	router = server.Handler()
}

func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"data":{"message":"Service initialization failed."}}`))
		return
	}
	router.ServeHTTP(w, r)
}
