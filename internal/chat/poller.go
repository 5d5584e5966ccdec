package chat

import (
	"context"
	"time"

	"github.com/raphaelgruber/moodon/internal/metrics"
)

// PollTimeoutMessage is alerted when the server never confirmed a send.
const PollTimeoutMessage = "응답이 지연되고 있습니다. 잠시 후 다시 시도해 주세요."

// poller is one polling cycle. Stopping cancels ctx, which also aborts the
// detail load of an in-flight tick.
type poller struct {
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
}

// startPolling replaces any running poller with a fresh one.
func (s *Synchronizer) startPolling() {
	s.mu.Lock()
	s.stopPollingLocked()
	ctx, cancel := context.WithCancel(s.baseCtx)
	p := &poller{ctx: ctx, cancel: cancel, started: s.now()}
	s.poller = p
	s.mu.Unlock()

	s.logger.Debug("polling started", "interval", s.pollInterval)
	go s.pollLoop(p)
	s.emit(Event{Kind: EventPolling, Polling: true})
}

// ensurePolling starts polling unless a cycle is already running.
func (s *Synchronizer) ensurePolling() {
	s.mu.Lock()
	running := s.poller != nil
	s.mu.Unlock()
	if !running {
		s.startPolling()
	}
}

// stopPolling stops the running poller, if any.
func (s *Synchronizer) stopPolling() {
	s.mu.Lock()
	stopped := s.stopPollingLocked()
	s.mu.Unlock()
	if stopped {
		s.logger.Debug("polling stopped")
		s.emit(Event{Kind: EventPolling, Polling: false})
	}
}

// stopPollingLocked must be called with s.mu held.
func (s *Synchronizer) stopPollingLocked() bool {
	if s.poller == nil {
		return false
	}
	s.poller.cancel()
	s.poller = nil
	return true
}

func (s *Synchronizer) pollLoop(p *poller) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if !s.pollTick(p) {
				return
			}
		}
	}
}

// pollTick re-fetches the active session. Returns false once polling ended.
func (s *Synchronizer) pollTick(p *poller) bool {
	s.mu.Lock()
	if s.poller != p {
		s.mu.Unlock()
		return false
	}
	active := s.activeID
	expired := s.pollMax > 0 && s.now().Sub(p.started) >= s.pollMax
	s.mu.Unlock()

	if active == 0 || !s.pending.HasAny() {
		s.stopPolling()
		return false
	}
	if expired {
		s.expirePolling(p)
		return false
	}

	start := time.Now()
	err := s.loadDetail(p.ctx, active, loadInPlace)
	s.metrics.RecordTiming(metrics.OpPollTick, time.Since(start), err != nil)
	if err != nil && p.ctx.Err() == nil {
		s.logger.Warn("poll tick failed", "session_id", active, "error", err)
	}
	return p.ctx.Err() == nil
}

// expirePolling gives up on confirmation: polling stops and input unlocks,
// pending entries stay stored so the next Resume picks them up again.
func (s *Synchronizer) expirePolling(p *poller) {
	s.mu.Lock()
	if s.poller != p {
		s.mu.Unlock()
		return
	}
	s.stopPollingLocked()
	s.locked = s.sending
	locked := s.locked
	s.mu.Unlock()

	s.logger.Warn("polling gave up waiting for confirmation", "max", s.pollMax)
	s.emit(
		Event{Kind: EventPolling, Polling: false},
		Event{Kind: EventInputLock, Locked: locked},
		Event{Kind: EventAlert, Text: PollTimeoutMessage},
	)
}
