package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ListSessions returns the current user's chat sessions.
// Accepts a bare array or a paginated {"results": [...]} body.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/api/chat/sessions/", nil, &raw); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		var page struct {
			Results []Session `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode sessions: %w", err)
		}
		return page.Results, nil
	}

	var sessions []Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

// CreateSession creates an empty session and returns its identifier.
func (c *Client) CreateSession(ctx context.Context) (int64, error) {
	var out struct {
		ID        FlexString `json:"id"`
		SessionID FlexString `json:"session_id"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/chat/sessions/", map[string]any{}, &out); err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	if id, ok := out.ID.Int64(); ok {
		return id, nil
	}
	if id, ok := out.SessionID.Int64(); ok {
		return id, nil
	}
	return 0, errors.New("create session: response has no session id")
}

// GetSession fetches a session with messages and state.
func (c *Client) GetSession(ctx context.Context, id int64) (*Session, error) {
	var out Session
	if err := c.Do(ctx, http.MethodGet, sessionPath(id, ""), nil, &out); err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return &out, nil
}

// DeleteSession deletes a session.
func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	if err := c.Do(ctx, http.MethodDelete, sessionPath(id, ""), nil, nil); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

// ResetSession clears the server-side recommendation context of a session.
func (c *Client) ResetSession(ctx context.Context, id int64) error {
	if err := c.Do(ctx, http.MethodPost, sessionPath(id, "reset/"), map[string]any{}, nil); err != nil {
		return fmt.Errorf("reset session %d: %w", id, err)
	}
	return nil
}

// GetSessionState fetches the recommendation context of a session.
func (c *Client) GetSessionState(ctx context.Context, id int64) (*SessionState, error) {
	var out SessionState
	if err := c.Do(ctx, http.MethodGet, sessionPath(id, "state/"), nil, &out); err != nil {
		return nil, fmt.Errorf("get session state %d: %w", id, err)
	}
	return &out, nil
}

// PatchSessionState partially updates the recommendation context of a session.
func (c *Client) PatchSessionState(ctx context.Context, id int64, patch SessionState) (*SessionState, error) {
	var out SessionState
	if err := c.Do(ctx, http.MethodPatch, sessionPath(id, "state/"), patch, &out); err != nil {
		return nil, fmt.Errorf("patch session state %d: %w", id, err)
	}
	return &out, nil
}

// SendMessage posts a user message (text and/or image) to a session.
// On a 502 the backend still stores an apology reply; it is returned
// alongside the error so callers can show it.
func (c *Client) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	fields := map[string]string{
		"session_id":     strconv.FormatInt(in.SessionID, 10),
		"text":           in.Text,
		"more_like_this": strconv.FormatBool(in.MoreLikeThis),
	}
	var file *FilePart
	if in.Image != nil {
		file = in.Image
		if file.Field == "" {
			file.Field = "image"
		}
		if in.ImageType != "" {
			fields["image_type"] = in.ImageType
		}
	}

	var out SendMessageResult
	if err := c.DoMultipart(ctx, "/api/chat/messages/", fields, file, &out); err != nil {
		return apologyResult(err), fmt.Errorf("send message: %w", err)
	}
	return &out, nil
}

// apologyResult extracts the assistant message a failed send may carry.
func apologyResult(err error) *SendMessageResult {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Payload == nil {
		return nil
	}
	if _, ok := apiErr.Payload["assistant_message"]; !ok {
		return nil
	}
	raw, mErr := json.Marshal(apiErr.Payload)
	if mErr != nil {
		return nil
	}
	var out SendMessageResult
	if json.Unmarshal(raw, &out) != nil || out.AssistantMessage == nil {
		return nil
	}
	return &out
}

// RateMessage stores a 1-5 satisfaction score for an assistant message.
func (c *Client) RateMessage(ctx context.Context, messageID int64, score int) error {
	if score < 1 || score > 5 {
		return fmt.Errorf("rate message: score %d out of range 1-5", score)
	}
	path := "/api/chat/messages/" + strconv.FormatInt(messageID, 10) + "/rate/"
	if err := c.Do(ctx, http.MethodPost, path, map[string]int{"satisfaction": score}, nil); err != nil {
		return fmt.Errorf("rate message %d: %w", messageID, err)
	}
	return nil
}

func sessionPath(id int64, suffix string) string {
	return "/api/chat/sessions/" + strconv.FormatInt(id, 10) + "/" + suffix
}
