// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline classifies network failures and tracks offline state.
package offline

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"
	"syscall"
)

// =============================================================================
// CONNECTIVITY CLASSIFICATION
// =============================================================================

// IsConnectivityError reports whether err indicates the network is
// unreachable, as opposed to the request itself being rejected. Context
// cancellation and deadline expiry are deliberate local decisions and are
// never classified as connectivity failures.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	// The caller gave up; the network may be fine.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// url.Error wraps every transport failure from net/http. Unwrap it
	// so the checks below see the cause.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return IsConnectivityError(urlErr.Err)
	}

	// DNS resolution failures
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Connection refusals and unreachable hosts at the syscall level
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// Remaining net-level failures, including dial timeouts
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

// =============================================================================
// OFFLINE FLAG
// =============================================================================

// Flag is a thread-safe offline indicator. The session store owns one and
// sets it when a send fails with a connectivity error; the next send
// clears it before dialing out again.
type Flag struct {
	mu     sync.RWMutex
	active bool
}

// Set marks the flag active.
func (f *Flag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = true
}

// Clear marks the flag inactive.
func (f *Flag) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
}

// Active reports whether the flag is set.
func (f *Flag) Active() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// =============================================================================
// OFFLINE NOTICE
// =============================================================================

// notice is the assistant message recorded in place of a reply when the
// network is unreachable.
const notice = "I'm currently offline. Your message has been saved and I'll respond when connection is restored. You can continue browsing your chat history."

// Notice returns the canned assistant message shown while offline.
func Notice() string {
	return notice
}
