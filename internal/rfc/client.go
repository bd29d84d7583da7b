// Package rfc manages the single logical RFC connection to the SAP system
// and issues remote function calls over it.
package rfc

import (
	"errors"
	"log/slog"
	"sync"

	"abapcheck/internal/config"
)

// Session is one live RFC session. Implementations are not safe for
// concurrent use; Client serializes access.
type Session interface {
	Call(function string, params map[string]any) (map[string]any, error)
	Close() error
}

// Dialer opens RFC sessions. The production dialer wraps the NW RFC SDK;
// tests substitute fakes.
type Dialer interface {
	Dial(cfg config.SAPConfig) (Session, error)
}

// Client owns the connection: an opaque session handle plus a connected flag,
// both mutated only under one mutex so connect-check, invoke, and the
// failure-triggered reset form a single critical section. The pair is either
// (nil, false) or (live, true); a communication fault during a call resets it
// to (nil, false) so the next request can reconnect cleanly.
type Client struct {
	cfg    config.SAPConfig
	dialer Dialer
	logger *slog.Logger

	mu        sync.Mutex
	session   Session
	connected bool
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the production SDK dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithLogger sets the logger used for connection lifecycle and call logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a disconnected client for cfg. The config is validated by
// the loader before the client is constructed.
func NewClient(cfg config.SAPConfig, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		dialer: sdkDialer{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the RFC session, or reuses the existing one. Reuse is
// idempotent: no new session is opened while one is live. On failure the
// handle stays cleared so a later call can retry.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.connected && c.session != nil {
		c.logger.Debug("RFC connection already established, reusing")
		return nil
	}

	c.logger.Info("connecting to SAP system",
		"destination", c.cfg.Destination(),
		"client", c.cfg.Client,
		"user", c.cfg.User,
	)

	session, err := c.dialer.Dial(c.cfg)
	if err != nil {
		c.session = nil
		c.connected = false
		connErr := wrapDialError(err)
		c.logger.Error("RFC connection failed", "error", connErr.Error())
		return connErr
	}

	c.session = session
	c.connected = true
	c.logger.Info("RFC connection established")
	return nil
}

func wrapDialError(err error) *Error {
	var fault *Fault
	if errors.As(err, &fault) {
		switch fault.Class {
		case FaultLogon:
			return &Error{Kind: KindConnection, Key: fault.Key, Message: "RFC logon failed: " + fault.Message}
		case FaultCommunication:
			return &Error{Kind: KindConnection, Key: fault.Key, Message: "RFC communication error: " + fault.Message}
		}
		return &Error{Kind: KindConnection, Key: fault.Key, Message: "RFC connection failed: " + fault.Message}
	}
	return &Error{Kind: KindConnection, Message: "RFC connection failed", Err: err}
}

// Call invokes the named remote function with keyword-style parameters over
// the established session. The caller is responsible for connecting first;
// there is no implicit reconnect. A communication fault invalidates the
// session before the error is returned.
func (c *Client) Call(function string, params map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.session == nil {
		return nil, &Error{Kind: KindConnection, Message: "not connected: call Connect() first"}
	}

	c.logger.Debug("calling RFC function", "function", function)
	c.logger.Debug("RFC call parameters", "params", sanitizeParams(params))

	result, err := c.session.Call(function, params)
	if err != nil {
		return nil, c.wrapCallErrorLocked(function, err)
	}

	c.logger.Debug("RFC call succeeded", "function", function, "result", sanitizeReply(result))
	return result, nil
}

func (c *Client) wrapCallErrorLocked(function string, err error) *Error {
	var fault *Fault
	if errors.As(err, &fault) {
		switch fault.Class {
		case FaultApplication:
			e := &Error{Kind: KindCall, Key: fault.Key, Message: "ABAP application error: " + fault.Message}
			c.logger.Error("RFC call failed", "function", function, "error", e.Error())
			return e
		case FaultRuntime:
			e := &Error{Kind: KindCall, Message: "ABAP runtime error: " + fault.Message}
			c.logger.Error("RFC call failed", "function", function, "error", e.Error())
			return e
		case FaultCommunication, FaultLogon:
			// A communication fault invalidates the session. Discard the
			// handle so connected can never be true with an unusable session.
			c.session = nil
			c.connected = false
			e := &Error{Kind: KindConnection, Key: fault.Key, Message: "RFC communication error: " + fault.Message}
			c.logger.Error("RFC call failed, connection invalidated", "function", function, "error", e.Error())
			return e
		}
	}
	e := &Error{Kind: KindCall, Message: "RFC call failed", Err: err}
	c.logger.Error("RFC call failed", "function", function, "error", e.Error())
	return e
}

// Disconnect closes the session. The handle is discarded even when the close
// itself fails, so the client never reports connected with a dead session.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.session == nil {
		c.logger.Debug("RFC connection not established, nothing to close")
		return
	}

	c.logger.Info("closing RFC connection")
	if err := c.session.Close(); err != nil {
		c.logger.Error("error while closing RFC connection", "error", err)
	}
	c.session = nil
	c.connected = false
	c.logger.Info("RFC connection closed")
}

// IsConnected reports whether a live session is held: the flag is set and
// the handle is present.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.session != nil
}
