// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/telemetry"
)

// healthResponse is the body of /healthz.
type healthResponse struct {
	Status       string `json:"status"`
	Language     string `json:"language"`
	Server       string `json:"server,omitempty"`
	ServerState  string `json:"server_state"`
	ConnectionID string `json:"connection_id,omitempty"`
	Connection   string `json:"connection_state,omitempty"`
}

// newDebugRouter builds the debug HTTP routes for srv.
func newDebugRouter(srv *client.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("lspclient"))

	router.GET("/healthz", func(c *gin.Context) {
		resp := healthResponse{
			Status:      "ok",
			Language:    srv.Language(),
			ServerState: srv.State().String(),
		}
		if info := srv.ServerInfo(); info != nil {
			resp.Server = info.Name
		}
		if conn := srv.Connection(); conn != nil {
			resp.ConnectionID = conn.ID()
			resp.Connection = conn.State().String()
		}

		code := http.StatusOK
		if srv.State() != client.ServerStateReady {
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})
	router.GET("/metrics", func(c *gin.Context) {
		telemetry.MetricsHandler().ServeHTTP(c.Writer, c.Request)
	})
	return router
}

// serveDebug serves the debug routes on addr until ctx ends.
func serveDebug(ctx context.Context, addr string, srv *client.Server) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           newDebugRouter(srv),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting debug server", slog.String("address", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
