// Copyright (c) 2022, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Serve runs the websocket hub and its http server on Config.Serve.Addr
// until the sim is closed or an interrupt signal arrives.
func (ss *Sim) Serve() {
	ctx, stop := signal.NotifyContext(ss.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go ss.Hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", ss.Hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Addr:              ss.Config.Serve.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Println(err)
		}
	}()

	log.Printf("serving websocket on %s/ws\n", ss.Config.Serve.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Println(err)
	}
}
