package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/profile"
)

const (
	opTimeout      = 30 * time.Second
	visibleHistory = 12
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Open the interactive chat",
	Long: `Open the interactive chat. Without a session id the most recent session
is opened, or a new one is created with the first message.

Commands inside the chat:
  /new            start a new session
  /sessions       list sessions
  /open <n>       open session number n from the list
  /delete         delete the current session
  /reset          clear the recommendation context
  /dismiss        remove messages that failed to send
  /rate <id> <n>  rate an assistant reply (1-5)
  /fav <product>  add a recommended product to favorites
  /quit           leave the chat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

// Theme holds the color scheme for the chat display.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	Title     lipgloss.Color
}

var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	Title:     lipgloss.Color("#D7AF5F"), // amber
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

// syncEventMsg carries a synchronizer event into the update loop.
type syncEventMsg chat.Event

// opDoneMsg reports the result of a background operation.
type opDoneMsg struct {
	info string
	err  error
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	sync      *chat.Synchronizer
	favorites *profile.Favorites
	input     textinput.Model
	spinner   spinner.Model
	theme     Theme
	snap      chat.Snapshot
	listing   bool
	info      string
	alert     string
	quitting  bool
}

func newChatModel(a *App) chatModel {
	ti := textinput.New()
	ti.Placeholder = "어떤 공간을 꾸미고 싶으세요?"
	ti.CharLimit = chat.MaxTextLength
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return chatModel{
		sync:      a.Sync,
		favorites: a.Favorites,
		input:     ti,
		spinner:   sp,
		theme:     defaultTheme,
		snap:      a.Sync.Snapshot(),
	}
}

// Init starts the spinner.
func (m chatModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			if m.snap.InputLocked && !strings.HasPrefix(line, "/") {
				return m, nil
			}
			m.input.Reset()
			m.alert = ""
			m.info = ""
			return m.handleLine(line)
		}

	case syncEventMsg:
		m.snap = m.sync.Snapshot()
		if msg.Kind == chat.EventAlert {
			m.alert = msg.Text
		}
		return m, nil

	case opDoneMsg:
		m.snap = m.sync.Snapshot()
		if msg.err != nil && m.alert == "" {
			m.alert = userError(msg.err).Error()
		}
		if msg.info != "" {
			m.info = msg.info
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleLine dispatches a slash command or sends the line as a message.
func (m chatModel) handleLine(line string) (tea.Model, tea.Cmd) {
	if !strings.HasPrefix(line, "/") {
		m.listing = false
		// Sends wait as long as the client timeout allows.
		return m, m.runWithin(0, func(ctx context.Context) (string, error) {
			err := m.sync.SendMessage(ctx, chat.SendInput{Text: line})
			if errors.Is(err, chat.ErrSendInFlight) {
				return "", nil
			}
			return "", err
		})
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/q":
		m.quitting = true
		return m, tea.Quit

	case "/new":
		m.listing = false
		return m, m.run(func(ctx context.Context) (string, error) {
			id, err := m.sync.CreateSession(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("새 대화 #%d", id), nil
		})

	case "/sessions":
		m.listing = true
		return m, m.run(func(ctx context.Context) (string, error) {
			m.sync.LoadSessions(ctx)
			return "", nil
		})

	case "/open":
		if len(fields) != 2 {
			m.alert = "사용법: /open <번호>"
			return m, nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(m.snap.Sessions) {
			m.alert = "목록에 없는 번호입니다."
			return m, nil
		}
		id := m.snap.Sessions[n-1].ID
		m.listing = false
		return m, m.run(func(ctx context.Context) (string, error) {
			return "", m.sync.LoadSessionDetail(ctx, id)
		})

	case "/delete":
		id := m.snap.ActiveID
		if id == 0 {
			m.alert = "열려 있는 대화가 없습니다."
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			if err := m.sync.DeleteSession(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("대화 #%d 삭제됨", id), nil
		})

	case "/dismiss":
		if m.snap.ActiveID == 0 {
			m.alert = "열려 있는 대화가 없습니다."
			return m, nil
		}
		m.sync.DismissFailed(m.snap.ActiveID)
		m.snap = m.sync.Snapshot()
		return m, nil

	case "/reset":
		return m, m.run(func(ctx context.Context) (string, error) {
			if err := m.sync.ResetContext(ctx); err != nil {
				return "", err
			}
			return "추천 맥락을 초기화했어요.", nil
		})

	case "/rate":
		if len(fields) != 3 {
			m.alert = "사용법: /rate <메시지ID> <1-5>"
			return m, nil
		}
		score, err := strconv.Atoi(fields[2])
		if err != nil {
			m.alert = "점수는 1에서 5 사이 숫자여야 합니다."
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			if err := m.sync.RateMessage(ctx, fields[1], score); err != nil {
				return "", err
			}
			return fmt.Sprintf("#%s 평가 %d/5", fields[1], score), nil
		})

	case "/fav":
		if len(fields) != 2 {
			m.alert = "사용법: /fav <상품ID>"
			return m, nil
		}
		product, ok := recommendedIn(m.snap, fields[1])
		if !ok {
			m.alert = "현재 대화에서 추천된 상품이 아닙니다."
			return m, nil
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			fav, err := m.favorites.AddRemote(ctx, profile.FromProduct(product))
			if err != nil {
				return "", err
			}
			return "찜 목록에 추가: " + favoriteLabel(fav), nil
		})
	}

	m.alert = "알 수 없는 명령입니다: " + fields[0]
	return m, nil
}

// run executes fn off the update loop with the default operation timeout.
func (m chatModel) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return m.runWithin(opTimeout, fn)
}

// runWithin executes fn off the update loop. A zero timeout leaves the
// deadline to the HTTP client.
func (m chatModel) runWithin(timeout time.Duration, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		info, err := fn(ctx)
		return opDoneMsg{info: info, err: err}
	}
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("대화를 종료합니다.") + "\n"
	}

	var b strings.Builder
	if m.listing {
		b.WriteString(m.renderSessions())
	} else {
		b.WriteString(m.renderActive())
	}
	b.WriteString("\n")

	switch {
	case m.alert != "":
		b.WriteString(m.theme.errorStyle().Render(m.alert) + "\n")
	case m.info != "":
		b.WriteString(m.theme.hintStyle().Render(m.info) + "\n")
	}

	if m.snap.InputLocked {
		status := "답변을 기다리는 중"
		if m.snap.Polling && !m.snap.Sending {
			status = "이전 메시지의 답변을 확인하는 중"
		}
		b.WriteString(m.spinner.View() + " " + m.theme.hintStyle().Render(status) + "\n")
	}
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.theme.hintStyle().Render("/sessions 목록 · /new 새 대화 · Esc 종료"))
	return b.String()
}

func (m chatModel) renderSessions() string {
	if len(m.snap.Sessions) == 0 {
		return m.theme.hintStyle().Render("대화가 없습니다. 메시지를 입력해 시작하세요.") + "\n"
	}
	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("대화 목록") + "\n")
	for i, s := range m.snap.Sessions {
		marker := "  "
		if s.ID == m.snap.ActiveID {
			marker = "▸ "
		}
		fmt.Fprintf(&b, "%s%2d. %s\n", marker, i+1, s.Title)
	}
	b.WriteString(m.theme.hintStyle().Render("/open <번호> 로 대화를 엽니다.") + "\n")
	return b.String()
}

func (m chatModel) renderActive() string {
	sess, ok := m.snap.Active()
	if !ok {
		return m.theme.hintStyle().Render("새 대화를 시작하려면 메시지를 입력하세요.") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render(fmt.Sprintf("#%d %s", sess.ID, sess.Title)) + "\n")
	if line := stateLine(sess.State); line != "" {
		b.WriteString(m.theme.hintStyle().Render(line) + "\n")
	}
	b.WriteString("\n")

	msgs := sess.Messages
	if len(msgs) > visibleHistory {
		msgs = msgs[len(msgs)-visibleHistory:]
	}
	for _, msg := range msgs {
		style := m.theme.userStyle()
		if msg.Role == chat.RoleAssistant {
			style = m.theme.assistantStyle()
		}
		if msg.Failed {
			style = m.theme.errorStyle()
		}
		b.WriteString(style.Render(formatMessage(msg)) + "\n")
		for _, p := range msg.RecommendedProducts {
			b.WriteString("    • " + formatProduct(p) + "\n")
		}
	}
	return b.String()
}

// recommendedIn finds a product recommended in the active session.
func recommendedIn(snap chat.Snapshot, productID string) (chat.Product, bool) {
	sess, ok := snap.Active()
	if !ok {
		return chat.Product{}, false
	}
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		for _, p := range sess.Messages[i].RecommendedProducts {
			if p.ID == productID {
				return p, true
			}
		}
	}
	return chat.Product{}, false
}

func runChat(cmd *cobra.Command, args []string) error {
	if !app.Auth.RequireLogin() {
		return nil
	}
	ctx := context.Background()

	var openID int64
	if len(args) > 0 {
		id, err := chat.ParseSessionID(args[0])
		if err != nil {
			return err
		}
		openID = id
	}

	// Load before the UI starts so the first frame has data.
	app.Sync.LoadSessions(ctx)
	if err := app.Sync.Resume(ctx); err != nil {
		logger.Warn("failed to resume pending session", "error", err)
	}
	if openID == 0 && app.Sync.ActiveID() == 0 {
		if sessions := app.Sync.Snapshot().Sessions; len(sessions) > 0 {
			openID = sessions[0].ID
		}
	}
	if openID != 0 {
		_ = app.Sync.LoadSessionDetail(ctx, openID)
	}

	p := tea.NewProgram(newChatModel(app))
	forward := func(ev chat.Event) { p.Send(syncEventMsg(ev)) }
	for _, kind := range []chat.EventKind{
		chat.EventSessions, chat.EventActive, chat.EventMessages,
		chat.EventInputLock, chat.EventPolling, chat.EventAlert,
	} {
		app.Sync.On(kind, forward)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
