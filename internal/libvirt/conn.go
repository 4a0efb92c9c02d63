// Package libvirt reads per-domain counters from a local libvirt daemon.
package libvirt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"

	"housekeeper/internal/clock"
)

// ErrBackoff is returned while a failed dial is still inside its retry window.
var ErrBackoff = errors.New("libvirt reconnect pending")

// ConnManager owns a single libvirt RPC connection. Dialing happens lazily
// from the collection path, so a dead daemon costs one attempt per retry
// window instead of blocking every tick.
type ConnManager struct {
	mu          sync.Mutex
	client      *golibvirt.Libvirt
	uri         string
	clk         clock.Clock
	logger      *slog.Logger
	retryWait   time.Duration
	maxJitter   time.Duration
	randSrc     *rand.Rand
	nextAttempt clock.Instant
	dial        func(*url.URL) (*golibvirt.Libvirt, error)
}

func NewConnManager(uri string, retryWait, maxJitter time.Duration, clk clock.Clock, logger *slog.Logger) *ConnManager {
	if retryWait <= 0 {
		retryWait = 3 * time.Second
	}
	if maxJitter < 0 {
		maxJitter = 0
	}
	return &ConnManager{
		uri:       uri,
		clk:       clk,
		logger:    logger.With("component", "libvirt"),
		retryWait: retryWait,
		maxJitter: maxJitter,
		randSrc:   rand.New(rand.NewSource(time.Now().UnixNano())),
		dial:      dialURI,
	}
}

func dialURI(u *url.URL) (*golibvirt.Libvirt, error) {
	return golibvirt.ConnectToURI(u)
}

// Client returns the live connection, dialing if none exists and the retry
// window has passed.
func (m *ConnManager) Client(ctx context.Context) (*golibvirt.Libvirt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.clk.Now()
	if !m.nextAttempt.IsZero() && now.Sub(m.nextAttempt) < 0 {
		return nil, ErrBackoff
	}

	uri, err := m.parseURI()
	if err != nil {
		return nil, err
	}
	c, err := m.dial(uri)
	if err != nil {
		wait := m.retryWait + m.jitter()
		m.nextAttempt = now.Add(wait)
		m.logger.Warn("libvirt connect failed", "uri", uri.Redacted(), "error", err, "retry_in", wait)
		return nil, fmt.Errorf("connect %s: %w", uri.Redacted(), err)
	}
	m.client = c
	m.logger.Info("libvirt connected", "uri", uri.Redacted())
	return c, nil
}

// Drop discards a connection that failed mid-call; the next Client dials
// again.
func (m *ConnManager) Drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return
	}
	if err := m.client.Disconnect(); err != nil {
		m.logger.Debug("libvirt disconnect failed", "error", err)
	}
	m.client = nil
	m.nextAttempt = m.clk.Now().Add(m.retryWait)
}

func (m *ConnManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}

func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect()
	m.client = nil
	return err
}

func (m *ConnManager) parseURI() (*url.URL, error) {
	raw := m.uri
	if raw == "" {
		raw = string(golibvirt.QEMUSystem)
	}
	uri, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse libvirt uri %q: %w", raw, err)
	}
	if uri.Scheme == "" {
		uri, err = url.Parse(string(golibvirt.QEMUSystem))
		if err != nil {
			return nil, fmt.Errorf("parse fallback uri: %w", err)
		}
	}
	return uri, nil
}

func (m *ConnManager) jitter() time.Duration {
	if m.maxJitter == 0 {
		return 0
	}
	return time.Duration(m.randSrc.Int63n(int64(m.maxJitter)))
}
