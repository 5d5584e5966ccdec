package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raphaelgruber/moodon/internal/chat"
)

// formatMessage renders one transcript line.
func formatMessage(m chat.Message) string {
	who := "나"
	if m.Role == chat.RoleAssistant {
		who = "MOOD ON"
	}

	var flags []string
	switch {
	case m.Failed:
		flags = append(flags, "전송 실패")
	case m.Pending:
		flags = append(flags, "대기 중")
	}
	if m.Satisfaction != nil {
		flags = append(flags, fmt.Sprintf("만족도 %d/5", *m.Satisfaction))
	}

	var b strings.Builder
	if !m.CreatedAt.IsZero() {
		b.WriteString(m.CreatedAt.Local().Format("15:04") + " ")
	}
	b.WriteString(who)
	if !m.IsTemp() && m.ID != "" {
		b.WriteString(" #" + m.ID)
	}
	b.WriteString(": ")
	b.WriteString(m.Text)
	if m.Image != "" {
		b.WriteString(" [이미지: " + m.Image + "]")
	}
	if len(flags) > 0 {
		b.WriteString(" (" + strings.Join(flags, ", ") + ")")
	}
	return b.String()
}

// formatProduct renders a recommended or favorite product.
func formatProduct(p chat.Product) string {
	parts := []string{p.Name}
	if p.Brand != "" {
		parts = append(parts, p.Brand)
	}
	if price := formatPrice(p.Price); price != "" {
		parts = append(parts, price)
	}
	line := strings.Join(parts, " · ")
	if p.ID != "" {
		line += " [" + p.ID + "]"
	}
	if verbose && p.Link != "" {
		line += " " + p.Link
	}
	return line
}

// formatPrice adds thousands separators and the won suffix to numeric prices.
func formatPrice(price string) string {
	price = strings.TrimSpace(price)
	n, err := strconv.ParseInt(price, 10, 64)
	if err != nil {
		return price
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 && s[i-1] != '-' {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + "원"
}

// stateLine summarizes the recommendation context of a session.
func stateLine(s chat.State) string {
	var parts []string
	if s.Category != "" {
		parts = append(parts, "카테고리: "+s.Category)
	}
	if s.Budget != "" {
		parts = append(parts, "예산: "+s.Budget)
	}
	if len(s.Mood) > 0 {
		parts = append(parts, "무드: "+strings.Join(s.Mood, ", "))
	}
	return strings.Join(parts, " | ")
}
