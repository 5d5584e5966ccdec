// Package chat keeps the local view of chat sessions consistent with the
// server while messages are sent optimistically.
package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/raphaelgruber/moodon/internal/client"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImageType classifies an attached image.
type ImageType string

const (
	ImageCurrent   ImageType = "current"   // photo of the user's room
	ImageReference ImageType = "reference" // inspiration photo
)

// DefaultTitle is used when the server sends a session without a title.
const DefaultTitle = "새 대화"

// PlaceholderText is shown in the optimistic assistant message.
const PlaceholderText = "추천을 준비하고 있어요..."

// tempIDPrefix marks client-generated message ids.
const tempIDPrefix = "tmp-"

// Product is a product recommended in an assistant message.
type Product struct {
	ID    string `json:"product_id"`
	Name  string `json:"product_name"`
	Brand string `json:"brand_name"`
	Price string `json:"price"`
	Link  string `json:"link_url"`
	Image string `json:"image_url"`
}

// Message is a chat message, either confirmed by the server or created locally.
type Message struct {
	ID                  string    `json:"id"`
	Role                Role      `json:"role"`
	Text                string    `json:"text"`
	CreatedAt           time.Time `json:"created_at"`
	Image               string    `json:"image,omitempty"`
	ImageType           ImageType `json:"image_type,omitempty"`
	RecommendedProducts []Product `json:"recommended_products,omitempty"`
	Satisfaction        *int      `json:"satisfaction,omitempty"`

	// Pending marks an optimistic message awaiting server confirmation.
	Pending bool `json:"_pending,omitempty"`
	// Failed marks a local user message whose send was rejected.
	Failed bool `json:"_failed,omitempty"`
	// After is the id of the last confirmed message when this local
	// message was created. Empty for a session that had no messages.
	After string `json:"_after,omitempty"`
}

// UnmarshalJSON accepts numeric ids and the legacy "sender" field.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var aux struct {
		plain
		ID     client.FlexString `json:"id"`
		Sender string            `json:"sender"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Message(aux.plain)
	m.ID = string(aux.ID)
	if m.Role == "" {
		m.Role = normalizeRole(aux.Sender)
	} else {
		m.Role = normalizeRole(string(m.Role))
	}
	return nil
}

// IsTemp reports whether the message id was generated locally.
func (m Message) IsTemp() bool {
	return strings.HasPrefix(m.ID, tempIDPrefix)
}

// State is the normalized recommendation context of a session.
// Budget and Mood are derived once during normalization.
type State struct {
	Category               string   `json:"category,omitempty"`
	Space                  string   `json:"space,omitempty"`
	Mode                   string   `json:"mode,omitempty"`
	PriceMin               *int64   `json:"price_min,omitempty"`
	PriceMax               *int64   `json:"price_max,omitempty"`
	TargetMoods            []string `json:"target_moods,omitempty"`
	CurrentMoods           []string `json:"current_moods,omitempty"`
	StyleKeywords          []string `json:"style_keywords,omitempty"`
	ColorKeywords          []string `json:"color_keywords,omitempty"`
	MaterialKeywords       []string `json:"material_keywords,omitempty"`
	LightingKeywords       []string `json:"lighting_keywords,omitempty"`
	VLMDescription         string   `json:"vlm_description,omitempty"`
	TargetImageDescription string   `json:"target_image_description,omitempty"`

	Budget string   `json:"budget,omitempty"`
	Mood   []string `json:"mood,omitempty"`
}

// Session is a chat conversation.
type Session struct {
	ID                 int64          `json:"id"`
	Title              string         `json:"title"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	LastMessagePreview string         `json:"last_message_preview,omitempty"`
	LastMessageAt      time.Time      `json:"last_message_at,omitzero"`
	Messages           []Message      `json:"messages"`
	State              State          `json:"state"`
	Context            map[string]any `json:"context,omitempty"`
}

// clone copies the message slice so snapshots cannot alias live state.
func (s Session) clone() Session {
	s.Messages = append([]Message(nil), s.Messages...)
	return s
}

// lastConfirmedID returns the id of the newest server-confirmed message.
func (s Session) lastConfirmedID() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if !m.IsTemp() && !m.Pending && !m.Failed {
			return m.ID
		}
	}
	return ""
}
