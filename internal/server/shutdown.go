// If you are AI: This file handles graceful shutdown orchestration for the server process.

package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownHandler cancels a context on SIGINT or SIGTERM.
type ShutdownHandler struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigs   chan os.Signal
	done   chan struct{}
}

// NewShutdownHandler starts listening for termination signals.
// The returned handler's Context is a child of parent.
func NewShutdownHandler(parent context.Context, logger *slog.Logger) *ShutdownHandler {
	ctx, cancel := context.WithCancel(parent)
	h := &ShutdownHandler{
		ctx:    ctx,
		cancel: cancel,
		sigs:   make(chan os.Signal, 1),
		done:   make(chan struct{}),
	}
	signal.Notify(h.sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer close(h.done)
		select {
		case sig := <-h.sigs:
			logger.Info("received signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return h
}

// Context returns the context that is cancelled when shutdown begins.
func (h *ShutdownHandler) Context() context.Context {
	return h.ctx
}

// Stop releases the signal handler and cancels the context.
func (h *ShutdownHandler) Stop() {
	signal.Stop(h.sigs)
	h.cancel()
	<-h.done
}
