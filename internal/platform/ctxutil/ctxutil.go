// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/mkravets/contactly/internal/platform/ctxkey"
	"github.com/mkravets/contactly/internal/platform/sec"
	"github.com/mkravets/contactly/internal/users/identity"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithIdentity returns a new context carrying the resolved caller identity
// together with the verified access-token claims it was derived from.
//
// This is the request-scoped session context: it is rebuilt on every request
// and never persisted.
func WithIdentity(ctx context.Context, resolved *identity.Identity, claims *sec.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxkey.KeyIdentity, resolved)
	return context.WithValue(ctx, ctxkey.KeyClaims, claims)
}

// GetIdentity retrieves the resolved [*identity.Identity] of the caller.
// Returns nil for anonymous requests.
func GetIdentity(ctx context.Context) *identity.Identity {
	resolved, ok := ctx.Value(ctxkey.KeyIdentity).(*identity.Identity)
	if !ok {
		return nil
	}
	return resolved
}

// GetClaims retrieves the verified access-token [*sec.Claims].
// Returns nil for anonymous requests.
func GetClaims(ctx context.Context) *sec.Claims {
	claims, ok := ctx.Value(ctxkey.KeyClaims).(*sec.Claims)
	if !ok {
		return nil
	}
	return claims
}
