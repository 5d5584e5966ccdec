package chat

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/moodon/internal/client"
)

// ParseSessionID parses a user-supplied session identifier.
func ParseSessionID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSessionID, s)
	}
	return id, nil
}

// normalizeSession converts a wire session into the local model.
// Returns false when the session has no usable numeric id.
func normalizeSession(ws client.Session) (Session, bool) {
	id, ok := ws.ID.Int64()
	if !ok || id <= 0 {
		return Session{}, false
	}

	title := strings.TrimSpace(ws.Title)
	if title == "" {
		title = DefaultTitle
	}

	msgs := make([]Message, 0, len(ws.Messages))
	for _, wm := range ws.Messages {
		msgs = append(msgs, normalizeMessage(wm))
	}
	sortMessages(msgs)

	return Session{
		ID:                 id,
		Title:              title,
		CreatedAt:          parseTime(ws.CreatedAt),
		UpdatedAt:          parseTime(ws.UpdatedAt),
		LastMessagePreview: ws.LastMessagePreview,
		LastMessageAt:      parseTime(ws.LastMessageAt),
		Messages:           msgs,
		State:              normalizeState(ws.State, ws.Context),
		Context:            ws.Context,
	}, true
}

func normalizeMessage(wm client.Message) Message {
	role := wm.Role
	if role == "" {
		role = wm.Sender
	}
	image := wm.ImageURL
	if image == "" {
		image = wm.Image
	}

	var products []Product
	for _, p := range wm.RecommendedProducts {
		products = append(products, normalizeProduct(p))
	}

	return Message{
		ID:                  string(wm.ID),
		Role:                normalizeRole(role),
		Text:                wm.Text,
		CreatedAt:           parseTime(wm.CreatedAt),
		Image:               image,
		ImageType:           ImageType(wm.ImageType),
		RecommendedProducts: products,
		Satisfaction:        wm.Satisfaction,
	}
}

func normalizeProduct(p client.Product) Product {
	return Product{
		ID:    string(p.ProductID),
		Name:  p.ProductName,
		Brand: p.BrandName,
		Price: string(p.Price),
		Link:  p.LinkURL,
		Image: p.ImageURL,
	}
}

func normalizeRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assistant", "bot", "ai", "system":
		return RoleAssistant
	default:
		return RoleUser
	}
}

// normalizeState merges the server state with legacy context fields and
// derives Budget and Mood.
func normalizeState(ws *client.SessionState, ctx map[string]any) State {
	var st State
	if ws != nil {
		st = State{
			Category:               deref(ws.Category),
			Space:                  deref(ws.Space),
			Mode:                   deref(ws.Mode),
			PriceMin:               ws.PriceMin,
			PriceMax:               ws.PriceMax,
			TargetMoods:            ws.TargetMoods,
			CurrentMoods:           ws.CurrentMoods,
			StyleKeywords:          ws.StyleKeywords,
			ColorKeywords:          ws.ColorKeywords,
			MaterialKeywords:       ws.MaterialKeywords,
			LightingKeywords:       ws.LightingKeywords,
			VLMDescription:         deref(ws.VLMDescription),
			TargetImageDescription: deref(ws.TargetImageDescription),
		}
	}

	// Older sessions kept these in the free-form context.
	if st.PriceMin == nil {
		st.PriceMin = contextInt(ctx, "price_min", "budget_min")
	}
	if st.PriceMax == nil {
		st.PriceMax = contextInt(ctx, "price_max", "budget_max")
	}
	if len(st.TargetMoods) == 0 {
		st.TargetMoods = contextStrings(ctx, "target_moods", "moods")
	}
	if st.Category == "" {
		st.Category = contextString(ctx, "category")
	}

	st.Budget = formatBudget(st.PriceMin, st.PriceMax)
	st.Mood = dedupe(st.TargetMoods, st.CurrentMoods)
	return st
}

// formatBudget renders a price range in won, e.g. "100,000원 ~ 500,000원".
func formatBudget(lo, hi *int64) string {
	switch {
	case lo != nil && hi != nil:
		return formatWon(*lo) + " ~ " + formatWon(*hi)
	case lo != nil:
		return formatWon(*lo) + " 이상"
	case hi != nil:
		return formatWon(*hi) + " 이하"
	default:
		return ""
	}
}

func formatWon(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString("원")
	return b.String()
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// sortMessages orders messages by creation time, keeping insertion order for ties.
func sortMessages(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func contextInt(ctx map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		switch v := ctx[k].(type) {
		case float64:
			n := int64(v)
			return &n
		case string:
			if n, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

func contextString(ctx map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := ctx[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func contextStrings(ctx map[string]any, keys ...string) []string {
	for _, k := range keys {
		list, ok := ctx[k].([]any)
		if !ok {
			continue
		}
		var out []string
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
