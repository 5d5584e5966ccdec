package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/moodon/internal/client"
	"github.com/raphaelgruber/moodon/internal/metrics"
)

// Default polling parameters.
const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPollMaxDuration = 3 * time.Minute
)

// recoveryTimeout bounds the refresh after a failed send. It runs detached
// from the caller's context, which may be the reason the send failed.
const recoveryTimeout = 30 * time.Second

// API is the subset of the REST client the Synchronizer needs.
type API interface {
	ListSessions(ctx context.Context) ([]client.Session, error)
	CreateSession(ctx context.Context) (int64, error)
	GetSession(ctx context.Context, id int64) (*client.Session, error)
	DeleteSession(ctx context.Context, id int64) error
	ResetSession(ctx context.Context, id int64) error
	SendMessage(ctx context.Context, in client.SendMessageInput) (*client.SendMessageResult, error)
	RateMessage(ctx context.Context, messageID int64, score int) error
}

// PendingQueue is the durable store of optimistic messages.
type PendingQueue interface {
	Add(ctx context.Context, sessionID int64, msgs ...Message) error
	Clear(ctx context.Context, sessionID int64) error
	Count(sessionID int64) int
	HasAny() bool
	Entries(sessionID int64) []Message
	SessionIDs() []int64
}

// Gate blocks protected actions for anonymous users.
type Gate interface {
	RequireLogin() bool
}

// Options configures a Synchronizer.
type Options struct {
	PollInterval    time.Duration
	PollMaxDuration time.Duration // 0 disables the limit
	Logger          *slog.Logger
	Metrics         *metrics.Collector
	Now             func() time.Time
}

// Snapshot is a read-only copy of the synchronizer state.
type Snapshot struct {
	Sessions    []Session
	ActiveID    int64 // 0 when no session is active
	InputLocked bool
	Polling     bool
	Sending     bool
}

// Active returns the active session, if any.
func (s Snapshot) Active() (Session, bool) {
	for _, sess := range s.Sessions {
		if sess.ID == s.ActiveID {
			return sess, true
		}
	}
	return Session{}, false
}

type loadMode int

const (
	loadActivate loadMode = iota // make the session active
	loadInPlace                  // refresh without changing the active session
	loadFront                    // move to the front and make active
)

type loadTask struct {
	seq    uint64
	cancel context.CancelFunc
}

// Synchronizer owns the session list, the active session and the polling
// lifecycle. All methods are safe for concurrent use; state changes are
// published through On.
type Synchronizer struct {
	emitter

	api     API
	gate    Gate
	pending PendingQueue
	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time

	pollInterval time.Duration
	pollMax      time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	sessions []Session
	activeID int64
	sending  bool
	locked   bool
	poller   *poller
	loads    map[int64]loadTask
	loadSeq  uint64
	unsent   map[int64][]Message // failed sends kept visible until confirmed
}

// New creates a Synchronizer.
func New(api API, gate Gate, pending PendingQueue, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		api:          api,
		gate:         gate,
		pending:      pending,
		logger:       logger,
		metrics:      opts.Metrics,
		now:          now,
		pollInterval: interval,
		pollMax:      opts.PollMaxDuration,
		baseCtx:      ctx,
		baseCancel:   cancel,
		loads:        make(map[int64]loadTask),
		unsent:       make(map[int64][]Message),
	}
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		sessions[i] = sess.clone()
	}
	return Snapshot{
		Sessions:    sessions,
		ActiveID:    s.activeID,
		InputLocked: s.locked,
		Polling:     s.poller != nil,
		Sending:     s.sending,
	}
}

// ActiveID returns the active session id, or 0.
func (s *Synchronizer) ActiveID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// LoadSessions replaces the session list and clears the active session.
// Failures are logged and alerted; the list falls back to empty.
func (s *Synchronizer) LoadSessions(ctx context.Context) {
	wire, err := s.api.ListSessions(ctx)
	if err != nil {
		s.logger.Error("failed to load sessions", "error", err)
		wire = nil
	}

	sessions := make([]Session, 0, len(wire))
	for _, ws := range wire {
		sess, ok := normalizeSession(ws)
		if !ok {
			s.logger.Warn("skipping session with invalid id", "id", string(ws.ID))
			continue
		}
		sessions = append(sessions, sess)
	}

	s.mu.Lock()
	s.sessions = sessions
	hadActive := s.activeID != 0
	s.activeID = 0
	s.locked = s.sending
	locked := s.locked
	s.mu.Unlock()

	events := []Event{{Kind: EventSessions}}
	if hadActive {
		events = append(events, Event{Kind: EventActive}, Event{Kind: EventInputLock, Locked: locked})
	}
	if err != nil {
		events = append(events, Event{Kind: EventAlert, Text: client.UserMessage(err)})
	}
	s.emit(events...)
}

// LoadSessionDetail fetches a session, merges its pending messages and makes
// it active. Input stays locked and polling runs while entries remain.
func (s *Synchronizer) LoadSessionDetail(ctx context.Context, id int64) error {
	if id <= 0 {
		s.alert(ErrInvalidSessionID.Error())
		return fmt.Errorf("%w: %d", ErrInvalidSessionID, id)
	}
	if err := s.loadDetail(ctx, id, loadActivate); err != nil {
		s.alert(client.UserMessage(err))
		return err
	}
	return nil
}

// CreateSession creates a session on the server and makes it active.
func (s *Synchronizer) CreateSession(ctx context.Context) (int64, error) {
	if !s.gate.RequireLogin() {
		return 0, ErrLoginRequired
	}
	id, err := s.api.CreateSession(ctx)
	if err != nil {
		s.alert(client.UserMessage(err))
		return 0, err
	}
	if err := s.loadDetail(ctx, id, loadFront); err != nil {
		s.alert(client.UserMessage(err))
		return 0, err
	}
	s.logger.Info("session created", "session_id", id)
	return id, nil
}

// DeleteSession deletes a session. If it was active, the next remaining
// session is loaded, or the view falls back to empty.
func (s *Synchronizer) DeleteSession(ctx context.Context, id int64) error {
	if id <= 0 {
		s.alert(ErrInvalidSessionID.Error())
		return fmt.Errorf("%w: %d", ErrInvalidSessionID, id)
	}
	if err := s.api.DeleteSession(ctx, id); err != nil {
		s.alert(client.UserMessage(err))
		return err
	}
	if err := s.pending.Clear(ctx, id); err != nil {
		s.logger.Warn("failed to clear pending messages", "session_id", id, "error", err)
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx >= 0 {
		s.sessions = append(s.sessions[:idx:idx], s.sessions[idx+1:]...)
	}
	delete(s.unsent, id)
	if t, ok := s.loads[id]; ok {
		t.cancel()
		delete(s.loads, id)
	}
	wasActive := s.activeID == id
	var next int64
	if wasActive {
		s.activeID = 0
		s.locked = s.sending
		if n := len(s.sessions); n > 0 {
			next = s.sessions[min(max(idx, 0), n-1)].ID
		}
	}
	locked := s.locked
	s.mu.Unlock()

	s.logger.Info("session deleted", "session_id", id)
	s.emit(Event{Kind: EventSessions})
	if !wasActive {
		return nil
	}

	if next != 0 {
		err := s.loadDetail(ctx, next, loadActivate)
		if err == nil {
			return nil
		}
		s.logger.Warn("failed to load next session", "session_id", next, "error", err)
	}
	s.emit(Event{Kind: EventActive}, Event{Kind: EventInputLock, Locked: locked})
	if !s.pending.HasAny() {
		s.stopPolling()
	}
	return nil
}

// ResetContext clears the server-side recommendation context of the active
// session and reloads it.
func (s *Synchronizer) ResetContext(ctx context.Context) error {
	id := s.ActiveID()
	if id == 0 {
		return ErrNoActiveSession
	}
	if err := s.api.ResetSession(ctx, id); err != nil {
		s.alert(client.UserMessage(err))
		return err
	}
	return s.loadDetail(ctx, id, loadInPlace)
}

// RateMessage stores a 1-5 satisfaction score for an assistant message.
func (s *Synchronizer) RateMessage(ctx context.Context, messageID string, score int) error {
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("rate message: %q is not a confirmed message id", messageID)
	}
	if err := s.api.RateMessage(ctx, id, score); err != nil {
		s.alert(client.UserMessage(err))
		return err
	}
	return nil
}

// SendMessage sends a message optimistically: the user message and an
// assistant placeholder are shown and stored as pending before the network
// call, and reconciled with the server afterwards.
func (s *Synchronizer) SendMessage(ctx context.Context, in SendInput) error {
	if !s.gate.RequireLogin() {
		return ErrLoginRequired
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	if err := in.Validate(); err != nil {
		s.mu.Unlock()
		s.alert(err.Error())
		return err
	}
	s.sending = true
	s.locked = true
	s.mu.Unlock()
	s.emit(Event{Kind: EventInputLock, Locked: true})
	defer s.finishSend()

	id := s.ActiveID()
	if id == 0 {
		created, err := s.CreateSession(ctx)
		if err != nil {
			return err
		}
		id = created
	}

	user, placeholder := s.insertOptimistic(id, in)
	if err := s.pending.Add(ctx, id, user, placeholder); err != nil {
		s.logger.Warn("failed to store pending messages", "session_id", id, "error", err)
	}
	s.emit(Event{Kind: EventMessages, SessionID: id})
	s.startPolling()

	req := client.SendMessageInput{
		SessionID:    id,
		Text:         in.Text,
		MoreLikeThis: in.MoreLikeThis,
		ImageType:    string(in.ImageType),
	}
	if in.Image != nil {
		req.Image = &client.FilePart{
			Field:       "image",
			Filename:    attachmentName(in.Image),
			ContentType: in.Image.ContentType,
			Data:        in.Image.Data,
		}
	}

	start := time.Now()
	res, err := s.api.SendMessage(ctx, req)
	s.metrics.RecordTiming(metrics.OpSend, time.Since(start), err != nil)
	if err != nil {
		return s.sendFailed(ctx, id, user, placeholder, res, err)
	}

	target := id
	if res != nil {
		if rid, ok := res.SessionID.Int64(); ok && rid > 0 && rid != id {
			s.logger.Info("server answered for a different session", "sent", id, "answered", rid)
			target = rid
		}
	}

	if err := s.pending.Clear(ctx, id); err != nil {
		s.logger.Warn("failed to clear pending messages", "session_id", id, "error", err)
	}
	if target != id {
		s.dropLocal(id)
	}
	if err := s.loadDetail(ctx, target, loadActivate); err != nil {
		s.logger.Warn("failed to refresh session after send", "session_id", target, "error", err)
		s.confirmLocally(id, placeholder.ID, res)
	} else if s.hasMessage(id, placeholder.ID) {
		// A newer load superseded the refresh and has not been applied.
		s.confirmLocally(id, placeholder.ID, res)
	}
	return nil
}

// DismissFailed removes the failed messages kept for a session.
func (s *Synchronizer) DismissFailed(id int64) {
	s.mu.Lock()
	delete(s.unsent, id)
	if idx := s.indexLocked(id); idx >= 0 {
		msgs := make([]Message, 0, len(s.sessions[idx].Messages))
		for _, m := range s.sessions[idx].Messages {
			if !m.Failed {
				msgs = append(msgs, m)
			}
		}
		s.sessions[idx].Messages = msgs
	}
	s.mu.Unlock()
	s.emit(Event{Kind: EventMessages, SessionID: id})
}

// Resume restores polling for pending entries left by a previous run.
func (s *Synchronizer) Resume(ctx context.Context) error {
	ids := s.pending.SessionIDs()
	if len(ids) == 0 {
		return nil
	}

	active := s.ActiveID()
	target := ids[0]
	for _, id := range ids {
		if id == active {
			target = id
			break
		}
		if id > target {
			target = id
		}
	}

	s.logger.Info("resuming pending session", "session_id", target, "pending", s.pending.Count(target))
	err := s.loadDetail(ctx, target, loadActivate)
	if s.pending.HasAny() {
		s.ensurePolling()
	}
	return err
}

// Close stops polling and abandons in-flight loads.
func (s *Synchronizer) Close() {
	s.stopPolling()
	s.mu.Lock()
	for id, t := range s.loads {
		t.cancel()
		delete(s.loads, id)
	}
	s.mu.Unlock()
	s.baseCancel()
	s.removeAll()
}

// loadDetail fetches, reconciles and stores one session. A newer load of the
// same session cancels this one and its result is discarded.
func (s *Synchronizer) loadDetail(ctx context.Context, id int64, mode loadMode) error {
	taskCtx, seq := s.beginLoad(ctx, id)
	ws, err := s.api.GetSession(taskCtx, id)

	var sess Session
	if err == nil {
		var ok bool
		if sess, ok = normalizeSession(*ws); !ok {
			err = fmt.Errorf("session %d: %w", id, ErrInvalidSessionID)
		}
	}

	s.mu.Lock()
	if !s.finishLoadLocked(id, seq) {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded session load", "session_id", id)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}

	pend := s.pending.Entries(id)
	merged, remaining := Reconcile(sess.Messages, pend)
	// Failed messages are never matched by role: they stay until resent,
	// dismissed or absorbed by the recovery refresh of their own send.
	if kept := s.unsent[id]; len(kept) > 0 {
		merged = append(merged, kept...)
		sortMessages(merged)
	}
	sess.Messages = merged

	s.upsertLocked(sess, mode == loadFront)
	prevActive := s.activeID
	if mode != loadInPlace {
		s.activeID = id
	}
	isActive := s.activeID == id
	if isActive {
		s.locked = remaining > 0 || s.sending
	}
	locked := s.locked
	s.mu.Unlock()

	if remaining == 0 && len(pend) > 0 {
		if err := s.pending.Clear(ctx, id); err != nil {
			s.logger.Warn("failed to clear pending messages", "session_id", id, "error", err)
		}
	}

	events := []Event{{Kind: EventSessions}}
	if prevActive != id && isActive {
		events = append(events, Event{Kind: EventActive, SessionID: id})
	}
	events = append(events, Event{Kind: EventMessages, SessionID: id})
	if isActive {
		events = append(events, Event{Kind: EventInputLock, Locked: locked})
	}
	s.emit(events...)

	if !isActive {
		return nil
	}
	if remaining > 0 {
		s.ensurePolling()
	} else if !s.pending.HasAny() {
		s.stopPolling()
	}
	return nil
}

func (s *Synchronizer) beginLoad(ctx context.Context, id int64) (context.Context, uint64) {
	taskCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.loads[id]; ok {
		prev.cancel()
	}
	s.loadSeq++
	s.loads[id] = loadTask{seq: s.loadSeq, cancel: cancel}
	return taskCtx, s.loadSeq
}

// finishLoadLocked releases the load and reports whether it is still current.
func (s *Synchronizer) finishLoadLocked(id int64, seq uint64) bool {
	t, ok := s.loads[id]
	if !ok || t.seq != seq {
		return false
	}
	t.cancel()
	delete(s.loads, id)
	return true
}

func (s *Synchronizer) indexLocked(id int64) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

// upsertLocked replaces a session by id or prepends it.
func (s *Synchronizer) upsertLocked(sess Session, front bool) {
	idx := s.indexLocked(sess.ID)
	switch {
	case idx >= 0 && !front:
		s.sessions[idx] = sess
	case idx >= 0:
		rest := append(s.sessions[:idx:idx], s.sessions[idx+1:]...)
		s.sessions = append([]Session{sess}, rest...)
	default:
		s.sessions = append([]Session{sess}, s.sessions...)
	}
}

// insertOptimistic adds the user message and the assistant placeholder to
// the session. The placeholder is one second later so it always sorts last.
func (s *Synchronizer) insertOptimistic(id int64, in SendInput) (user, placeholder Message) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	var anchor string
	if idx >= 0 {
		anchor = s.sessions[idx].lastConfirmedID()
	}
	s.dropRetriedLocked(id, idx, in)

	user = Message{
		ID:        newTempID(),
		Role:      RoleUser,
		Text:      in.Text,
		CreatedAt: now,
		Pending:   true,
		After:     anchor,
	}
	if in.Image != nil {
		user.Image = attachmentName(in.Image)
		user.ImageType = in.ImageType
	}
	placeholder = Message{
		ID:        newTempID(),
		Role:      RoleAssistant,
		Text:      PlaceholderText,
		CreatedAt: now.Add(time.Second),
		Pending:   true,
		After:     anchor,
	}

	if idx >= 0 {
		msgs := make([]Message, 0, len(s.sessions[idx].Messages)+2)
		msgs = append(msgs, s.sessions[idx].Messages...)
		msgs = append(msgs, user, placeholder)
		sortMessages(msgs)
		s.sessions[idx].Messages = msgs
	}
	return user, placeholder
}

// dropRetriedLocked removes failed messages that the new send repeats.
func (s *Synchronizer) dropRetriedLocked(id int64, idx int, in SendInput) {
	unsent := s.unsent[id]
	if len(unsent) == 0 {
		return
	}
	image := ""
	if in.Image != nil {
		image = attachmentName(in.Image)
	}
	retried := func(m Message) bool {
		return m.Failed && m.Text == in.Text && m.Image == image
	}

	kept := unsent[:0:0]
	for _, m := range unsent {
		if !retried(m) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		delete(s.unsent, id)
	} else {
		s.unsent[id] = kept
	}
	if idx >= 0 {
		msgs := make([]Message, 0, len(s.sessions[idx].Messages))
		for _, m := range s.sessions[idx].Messages {
			if !retried(m) {
				msgs = append(msgs, m)
			}
		}
		s.sessions[idx].Messages = msgs
	}
}

// sendFailed drops the placeholder, keeps the user message visible as
// failed, refreshes the session and alerts. When the failure came from the
// transport rather than a server response, the refresh may show that the
// server stored the exchange after all; the send then counts as delivered.
func (s *Synchronizer) sendFailed(ctx context.Context, id int64, user, placeholder Message, res *client.SendMessageResult, sendErr error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recoveryTimeout)
	defer cancel()

	if err := s.pending.Clear(ctx, id); err != nil {
		s.logger.Warn("failed to clear pending messages", "session_id", id, "error", err)
	}

	failed := user
	failed.Pending = false
	failed.Failed = true

	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		msgs := make([]Message, 0, len(s.sessions[idx].Messages))
		for _, m := range s.sessions[idx].Messages {
			switch m.ID {
			case placeholder.ID:
				continue
			case user.ID:
				m = failed
			}
			msgs = append(msgs, m)
		}
		s.sessions[idx].Messages = msgs
	}
	s.unsent[id] = append(s.unsent[id], failed)
	s.mu.Unlock()
	s.emit(Event{Kind: EventMessages, SessionID: id})

	var apiErr *client.APIError
	answered := errors.As(sendErr, &apiErr)
	if err := s.loadDetail(ctx, id, loadInPlace); err != nil {
		s.logger.Warn("failed to refresh session after send error", "session_id", id, "error", err)
	} else if !answered && s.absorbDelivered(id, failed) {
		s.logger.Info("send failed locally but the server stored the exchange", "session_id", id, "error", sendErr)
		return nil
	}

	msg := client.UserMessage(sendErr)
	if res != nil && res.AssistantMessage != nil && strings.TrimSpace(res.AssistantMessage.Text) != "" {
		msg = res.AssistantMessage.Text
	}
	s.logger.Error("send failed", "session_id", id, "error", sendErr)
	s.alert(msg)
	return sendErr
}

// absorbDelivered drops a failed message when the server holds both a user
// message and a reply after its anchor.
func (s *Synchronizer) absorbDelivered(id int64, failed Message) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	var server []Message
	for _, m := range s.sessions[idx].Messages {
		if !m.IsTemp() {
			server = append(server, m)
		}
	}
	if !hasRoleAfter(server, failed.After, RoleUser) || !hasRoleAfter(server, failed.After, RoleAssistant) {
		s.mu.Unlock()
		return false
	}

	s.unsent[id] = withoutID(s.unsent[id], failed.ID)
	if len(s.unsent[id]) == 0 {
		delete(s.unsent, id)
	}
	s.sessions[idx].Messages = withoutID(s.sessions[idx].Messages, failed.ID)
	s.mu.Unlock()
	s.emit(Event{Kind: EventMessages, SessionID: id})
	return true
}

// hasMessage reports whether a session currently holds a message id.
func (s *Synchronizer) hasMessage(id int64, messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	for _, m := range s.sessions[idx].Messages {
		if m.ID == messageID {
			return true
		}
	}
	return false
}

func withoutID(msgs []Message, id string) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// confirmLocally applies the send response when the refresh failed.
func (s *Synchronizer) confirmLocally(id int64, placeholderID string, res *client.SendMessageResult) {
	var reply *Message
	if res != nil && res.AssistantMessage != nil {
		m := normalizeMessage(*res.AssistantMessage)
		m.Role = RoleAssistant
		reply = &m
	}

	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		msgs := make([]Message, 0, len(s.sessions[idx].Messages))
		for _, m := range s.sessions[idx].Messages {
			if m.ID == placeholderID {
				if reply == nil {
					continue
				}
				if reply.CreatedAt.IsZero() {
					reply.CreatedAt = m.CreatedAt
				}
				m = *reply
			}
			m.Pending = false
			msgs = append(msgs, m)
		}
		sortMessages(msgs)
		s.sessions[idx].Messages = msgs
	}
	s.mu.Unlock()
	s.emit(Event{Kind: EventMessages, SessionID: id})
}

// dropLocal removes local pending messages from a session.
func (s *Synchronizer) dropLocal(id int64) {
	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		msgs := make([]Message, 0, len(s.sessions[idx].Messages))
		for _, m := range s.sessions[idx].Messages {
			if !m.Pending {
				msgs = append(msgs, m)
			}
		}
		s.sessions[idx].Messages = msgs
	}
	s.mu.Unlock()
	s.emit(Event{Kind: EventMessages, SessionID: id})
}

func (s *Synchronizer) finishSend() {
	s.mu.Lock()
	s.sending = false
	s.locked = s.activeID != 0 && s.pending.Count(s.activeID) > 0
	locked := s.locked
	s.mu.Unlock()

	s.emit(Event{Kind: EventInputLock, Locked: locked})
	if !s.pending.HasAny() {
		s.stopPolling()
	}
}

func (s *Synchronizer) alert(text string) {
	s.emit(Event{Kind: EventAlert, Text: text})
}

func newTempID() string {
	return tempIDPrefix + uuid.NewString()
}

func attachmentName(a *Attachment) string {
	if a.Filename != "" {
		return a.Filename
	}
	if strings.Contains(a.ContentType, "png") {
		return "image.png"
	}
	return "image.jpg"
}
