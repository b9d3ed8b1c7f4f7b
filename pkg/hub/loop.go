package hub

import (
	"errors"
	"runtime/debug"
	"time"

	"github.com/zonehub/zonehub-go/pkg/connection"
	"github.com/zonehub/zonehub-go/pkg/log"
	"github.com/zonehub/zonehub-go/pkg/transport"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// Teardown reasons, also used as metric labels.
const (
	reasonStopped     = "stopped"
	reasonDrained     = "drained"
	reasonMalformed   = "malformed message"
	reasonReadTimeout = "read timeout"
	reasonLost        = "connection lost"
	reasonPanic       = "panic"
)

// run is the message loop. It is the only goroutine that opens, receives
// on or closes sessions.
func (c *Controller) run() {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("message loop panicked", "panic", r, "stack", string(debug.Stack()))
			c.terminate(reasonPanic)
		}
	}()

	for {
		if reason, ok := c.shouldTerminate(); ok {
			c.terminate(reason)
			return
		}

		sess := c.currentSession()
		if sess == nil {
			if !c.connect() {
				c.waitBackoff()
			}
			continue
		}

		msg, err := sess.Receive()
		if err != nil {
			c.handleReceiveError(err)
			continue
		}
		if msg == nil {
			c.metrics.RecordHeartbeat()
			continue
		}

		c.backoff.Reset()
		c.metrics.RecordReceived(string(msg.Service))
		c.dispatch(msg)
	}
}

// shouldTerminate reports whether the loop must exit, and why.
func (c *Controller) shouldTerminate() (string, bool) {
	if c.stopping.Load() || c.ctx.Err() != nil {
		return reasonStopped, true
	}
	if c.draining.Load() && c.PendingCount() == 0 {
		return reasonDrained, true
	}
	return "", false
}

// terminate closes the session, cancels every handle and marks the
// controller closed.
func (c *Controller) terminate(reason string) {
	c.stopping.Store(true)
	c.closeSession(reason)
	c.cancelPending()
	if c.connected.Cancel() {
		c.logger.Debug("connected signal cancelled before first connect")
	}
	c.setState(connection.StateClosed, reason)
	c.cancel()
	c.logger.Info("controller stopped", "reason", reason)
}

func (c *Controller) currentSession() transport.Conn {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// connect opens a session. On success it resets the backoff, announces
// connectivity and re-sends queries that were issued while disconnected.
func (c *Controller) connect() bool {
	c.setState(connection.StateConnecting, "")

	sess, err := c.opener.Open(c.ctx, c.config.Host, c.config.Port)
	if err != nil {
		c.metrics.RecordConnectAttempt(false)
		c.logger.Warn("connect failed", "error", err, "attempt", c.backoff.Attempts()+1)
		c.setState(connection.StateReconnecting, err.Error())
		return false
	}

	c.sessionMu.Lock()
	c.session = sess
	c.sessionMu.Unlock()

	c.backoff.Reset()
	c.metrics.RecordConnectAttempt(true)
	c.metrics.SetBackoff(0)
	c.setState(connection.StateConnected, "")
	c.logger.Info("connected to hub", "session", sess.ID(), "remote", remoteAddr(sess))

	if c.connected.Resolve(struct{}{}) {
		c.logger.Debug("connected signal resolved")
	}
	c.notifyConnectivity(true)

	// The hub answers the first request of a session unreliably.
	c.send(wire.NewSystemInfo(c.seq.Next()))
	c.replayPending()
	return true
}

// replayPending re-sends queries that are still waiting. They were issued
// while no session existed; teardown cancels everything else.
func (c *Controller) replayPending() {
	for _, zoneID := range c.zones.Keys() {
		c.send(wire.NewReportZoneProperties(c.seq.Next(), zoneID))
	}
	if c.zoneList.Len() > 0 {
		c.send(wire.NewListZones(c.seq.Next()))
	}
	// A pending identity query is answered by the SystemInfo sent on connect.
}

// waitBackoff sleeps for the next backoff delay. A stop or drain request
// cuts the wait short.
func (c *Controller) waitBackoff() {
	delay := c.backoff.Next()
	c.metrics.SetBackoff(delay)
	c.logger.Info("reconnecting", "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
	case <-c.wake:
	case <-timer.C:
	}
}

func (c *Controller) handleReceiveError(err error) {
	var malformed *transport.MalformedError
	switch {
	case errors.Is(err, transport.ErrReceiveCancelled):
		// Stop or a stale cancel; the termination check decides.
		return
	case errors.As(err, &malformed):
		c.metrics.RecordMalformed()
		c.logger.Warn("malformed message from hub", "error", err)
		c.logProtocolError(err, "receive")
		c.closeSession(reasonMalformed)
	case errors.Is(err, transport.ErrReadTimeout):
		c.logger.Warn("hub silent, dropping session", "timeout", c.config.ReadTimeout)
		c.closeSession(reasonReadTimeout)
	default:
		c.logger.Warn("hub connection lost", "error", err)
		c.closeSession(reasonLost)
	}
}

// closeSession tears down the current session, if any, and cancels every
// outstanding handle.
func (c *Controller) closeSession(reason string) {
	c.sessionMu.Lock()
	sess := c.session
	c.session = nil
	if sess != nil {
		sess.Close()
	}
	c.sessionMu.Unlock()

	if sess == nil {
		return
	}

	n := c.cancelPending()
	c.metrics.RecordDisconnect(reason)
	c.setState(connection.StateDisconnected, reason)
	c.logger.Info("session closed", "session", sess.ID(), "reason", reason, "cancelled", n)
	c.notifyConnectivity(false)
}

func (c *Controller) logProtocolError(err error, where string) {
	if c.protoLog == nil {
		return
	}
	c.protoLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.sessionID(),
		Direction:    log.DirectionIn,
		Layer:        log.LayerController,
		Category:     log.CategoryError,
		Error: &log.ErrorEvent{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: where,
		},
	})
}

func (c *Controller) sessionID() string {
	if sess := c.currentSession(); sess != nil {
		return sess.ID()
	}
	return ""
}

func remoteAddr(sess transport.Conn) string {
	if addr := sess.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// notifyConnectivity calls the listener. A panicking listener is logged and
// otherwise ignored.
func (c *Controller) notifyConnectivity(connected bool) {
	defer c.recoverListener("ConnectivityChanged")
	c.listener.ConnectivityChanged(connected)
}

func (c *Controller) recoverListener(method string) {
	if r := recover(); r != nil {
		c.logger.Error("listener panicked", "method", method, "panic", r)
	}
}
