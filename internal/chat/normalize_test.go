package chat

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/moodon/internal/client"
)

func decodeSession(t *testing.T, raw string) client.Session {
	t.Helper()
	var ws client.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &ws))
	return ws
}

func TestNormalizeSession(t *testing.T) {
	ws := decodeSession(t, `{
		"id": "12",
		"title": "",
		"created_at": "2025-12-03T10:00:00.123456+09:00",
		"messages": [
			{"id": 2, "role": "assistant", "text": "추천드려요", "created_at": "2025-12-03T10:00:05Z",
			 "recommended_products": [{"product_id": "guud_97008", "product_name": "소파", "brand_name": "guud", "price": 390000, "link_url": "https://x", "image_url": "https://y"}]},
			{"id": 1, "sender": "user", "text": "빈티지 스타일 소파 추천해줘", "created_at": "2025-12-03T10:00:01Z"}
		],
		"state": {"price_min": 100000, "price_max": 500000, "target_moods": ["빈티지", "따뜻한"], "current_moods": ["따뜻한", "모던"]}
	}`)

	sess, ok := normalizeSession(ws)
	require.True(t, ok)
	assert.EqualValues(t, 12, sess.ID)
	assert.Equal(t, DefaultTitle, sess.Title)
	require.Len(t, sess.Messages, 2)

	assert.Equal(t, "1", sess.Messages[0].ID)
	assert.Equal(t, RoleUser, sess.Messages[0].Role)
	assert.Equal(t, RoleAssistant, sess.Messages[1].Role)

	p := sess.Messages[1].RecommendedProducts
	require.Len(t, p, 1)
	assert.Equal(t, "guud_97008", p[0].ID)
	assert.Equal(t, "390000", p[0].Price)

	assert.Equal(t, "100,000원 ~ 500,000원", sess.State.Budget)
	assert.Equal(t, []string{"빈티지", "따뜻한", "모던"}, sess.State.Mood)
}

func TestNormalizeSessionRejectsBadID(t *testing.T) {
	for _, raw := range []string{`{"id": "abc"}`, `{"id": 0}`, `{}`} {
		_, ok := normalizeSession(decodeSession(t, raw))
		assert.False(t, ok, raw)
	}
}

func TestNormalizeStateLegacyContext(t *testing.T) {
	ws := decodeSession(t, `{"id": 1, "context": {"budget_max": "300,000", "moods": ["내추럴"], "category": "chair"}}`)
	sess, ok := normalizeSession(ws)
	require.True(t, ok)
	assert.Equal(t, "300,000원 이하", sess.State.Budget)
	assert.Equal(t, []string{"내추럴"}, sess.State.Mood)
	assert.Equal(t, "chair", sess.State.Category)
	assert.Equal(t, "chair", sess.Context["category"], "context is passed through")
}

func TestFormatBudget(t *testing.T) {
	n := func(v int64) *int64 { return &v }
	tests := []struct {
		lo, hi *int64
		want   string
	}{
		{n(100000), n(500000), "100,000원 ~ 500,000원"},
		{n(50000), nil, "50,000원 이상"},
		{nil, n(1000), "1,000원 이하"},
		{nil, nil, ""},
		{n(0), n(999), "0원 ~ 999원"},
		{n(1234567), nil, "1,234,567원 이상"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBudget(tt.lo, tt.hi))
	}
}

func TestMessageJSONLegacySender(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"id": 5, "sender": "bot", "text": "hi", "_pending": true}`), &m))
	assert.Equal(t, "5", m.ID)
	assert.Equal(t, RoleAssistant, m.Role)
	assert.True(t, m.Pending)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "tmp-1", "role": "USER"}`), &m))
	assert.Equal(t, RoleUser, m.Role)
	assert.True(t, m.IsTemp())
}

func TestParseSessionID(t *testing.T) {
	id, err := ParseSessionID(" 42 ")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "abc", "-1", "0", "1.5"} {
		_, err := ParseSessionID(bad)
		assert.True(t, errors.Is(err, ErrInvalidSessionID), bad)
	}
}

func TestSendInputValidate(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'}
	long := make([]rune, MaxTextLength+1)
	for i := range long {
		long[i] = '가'
	}
	exact := string(long[:MaxTextLength])

	tests := []struct {
		name string
		in   SendInput
		want error
	}{
		{"text ok", SendInput{Text: "빈티지 스타일 소파 추천해줘"}, nil},
		{"exactly 200 runes", SendInput{Text: exact}, nil},
		{"too long", SendInput{Text: string(long)}, ErrTextTooLong},
		{"empty", SendInput{Text: "   "}, ErrEmptyMessage},
		{"image only", SendInput{Image: &Attachment{Data: jpeg}, ImageType: ImageCurrent}, nil},
		{"image too large", SendInput{Image: &Attachment{Data: make([]byte, MaxImageBytes+1), ContentType: "image/png"}}, ErrImageTooLarge},
		{"gif rejected", SendInput{Image: &Attachment{Data: []byte("GIF89a...."), ContentType: ""}}, ErrImageType},
		{"bad image type", SendInput{Image: &Attachment{Data: jpeg}, ImageType: "selfie"}, ErrInvalidImageType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := in.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
