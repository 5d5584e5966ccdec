package client

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string or number into its textual form.
// The backend is inconsistent about identifiers and prices.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Int64 parses the value as a base-10 integer.
func (f FlexString) Int64() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	return n, err == nil
}

// Session is a chat session as returned by the list and detail endpoints.
type Session struct {
	ID                 FlexString     `json:"id"`
	Title              string         `json:"title"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          string         `json:"updated_at"`
	LastMessagePreview string         `json:"last_message_preview"`
	LastMessageAt      string         `json:"last_message_at"`
	Messages           []Message      `json:"messages"`
	State              *SessionState  `json:"state"`
	Context            map[string]any `json:"context"`
}

// Message is a chat message on the wire. Sender is a legacy alias for Role.
type Message struct {
	ID                  FlexString `json:"id"`
	Role                string     `json:"role"`
	Sender              string     `json:"sender"`
	Text                string     `json:"text"`
	ImageURL            string     `json:"image_url"`
	Image               string     `json:"image"`
	ImageType           string     `json:"image_type"`
	CreatedAt           string     `json:"created_at"`
	RecommendedProducts []Product  `json:"recommended_products"`
	Satisfaction        *int       `json:"satisfaction"`
}

// Product is a recommended or favorited product.
type Product struct {
	ProductID   FlexString `json:"product_id"`
	ProductName string     `json:"product_name"`
	BrandName   string     `json:"brand_name"`
	Price       FlexString `json:"price"`
	LinkURL     string     `json:"link_url"`
	ImageURL    string     `json:"image_url"`
}

// SessionState is the server-side recommendation context of a session.
type SessionState struct {
	Category               *string  `json:"category,omitempty"`
	Space                  *string  `json:"space,omitempty"`
	PriceMin               *int64   `json:"price_min,omitempty"`
	PriceMax               *int64   `json:"price_max,omitempty"`
	Mode                   *string  `json:"mode,omitempty"`
	TargetMoods            []string `json:"target_moods,omitempty"`
	CurrentMoods           []string `json:"current_moods,omitempty"`
	StyleKeywords          []string `json:"style_keywords,omitempty"`
	ColorKeywords          []string `json:"color_keywords,omitempty"`
	MaterialKeywords       []string `json:"material_keywords,omitempty"`
	LightingKeywords       []string `json:"lighting_keywords,omitempty"`
	VLMDescription         *string  `json:"vlm_description,omitempty"`
	TargetImageDescription *string  `json:"target_image_description,omitempty"`
}

// SendMessageInput is the multipart message-send request.
type SendMessageInput struct {
	SessionID    int64
	Text         string
	MoreLikeThis bool
	Image        *FilePart
	ImageType    string
}

// SendMessageResult is the message-send response.
type SendMessageResult struct {
	SessionID        FlexString    `json:"session_id"`
	AssistantMessage *Message      `json:"assistant_message"`
	SessionState     *SessionState `json:"session_state"`
}

// SessionStatus is the authoritative authentication status.
type SessionStatus struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	Email           string `json:"email"`
}

// Favorite is a server-side favorites entry.
type Favorite struct {
	ID        FlexString `json:"id"`
	Product   Product    `json:"product"`
	CreatedAt string     `json:"created_at"`
}

// Detail is the common {"detail": "..."} acknowledgement body.
type Detail struct {
	Detail string `json:"detail"`
}
