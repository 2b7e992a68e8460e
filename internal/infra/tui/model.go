package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain"
	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/domain/ports/adapter"
	"chatbot-feedback/internal/infra/i18n"
	"chatbot-feedback/internal/infra/scheduler"
	"chatbot-feedback/internal/usecase"
)

// TickInterval is how often the model drains the event loop.
const TickInterval = 50 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type focusArea int

const (
	focusSidebar focusArea = iota
	focusInput
	focusFeedback
	focusCount
)

// Inbox collects controller events until the model drains them. It is only
// touched from the bubbletea Update goroutine.
type Inbox struct {
	events []adapter.Event
}

func NewInbox() *Inbox { return &Inbox{} }

func (b *Inbox) Notify(ev adapter.Event) { b.events = append(b.events, ev) }

func (b *Inbox) drain() []adapter.Event {
	out := b.events
	b.events = nil
	return out
}

// Model is the bubbletea model for the chat widget.
type Model struct {
	ctx   context.Context
	uc    usecase.SessionUseCase
	loop  *scheduler.Loop
	tr    *i18n.Translator
	inbox *Inbox
	log   *zerolog.Logger

	input textinput.Model
	note  textinput.Model
	chat  viewport.Model
	rows  table.Model

	focus  focusArea
	cursor int
	convs  []*model.Conversation

	status   string
	statusOK bool
	width    int
	height   int
}

func New(ctx context.Context, uc usecase.SessionUseCase, loop *scheduler.Loop, tr *i18n.Translator, inbox *Inbox, logger *zerolog.Logger) Model {
	in := textinput.New()
	in.Placeholder = tr.T("input_placeholder")
	in.Prompt = "> "
	in.CharLimit = 4096

	note := textinput.New()
	note.Placeholder = tr.T("feedback_placeholder")
	note.Prompt = "✎ "
	note.CharLimit = 2048

	rows := table.New(
		table.WithColumns(overviewColumns(tr, 80)),
		table.WithHeight(10),
	)

	m := Model{
		ctx:   ctx,
		uc:    uc,
		loop:  loop,
		tr:    tr,
		inbox: inbox,
		log:   logger,
		input: in,
		note:  note,
		chat:  viewport.New(60, 15),
		rows:  rows,
		focus: focusSidebar,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		if n := m.loop.RunDue(); n > 0 {
			m.afterAction(nil)
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return nil, true
	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return nil, false
	case "shift+tab":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return nil, false
	case "ctrl+n":
		_, err := m.uc.StartNew(m.ctx)
		if err == nil {
			m.cursor = len(m.convs)
			m.setFocus(focusInput)
		}
		m.afterAction(err)
		return nil, false
	case "ctrl+o":
		m.uc.ToggleOverview()
		m.afterAction(nil)
		return nil, false
	case "ctrl+r":
		next := (m.uc.Drafts().Rating + 1) % (model.MaxRating + 1)
		m.afterAction(m.uc.SetDraftRating(next))
		return nil, false
	case "ctrl+s":
		m.afterAction(m.uc.SubmitDraftFeedback(m.ctx))
		return nil, false
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSidebar:
		m.sidebarKey(msg)
	case focusInput:
		if msg.Type == tea.KeyEnter {
			m.afterAction(m.uc.SendDraft(m.ctx))
			return nil, false
		}
		m.input, cmd = m.input.Update(msg)
		m.uc.SetDraftInput(m.input.Value())
	case focusFeedback:
		if msg.Type == tea.KeyEnter {
			m.afterAction(m.uc.SubmitDraftFeedback(m.ctx))
			return nil, false
		}
		m.note, cmd = m.note.Update(msg)
		m.uc.SetDraftFeedback(m.note.Value())
	}
	return cmd, false
}

func (m *Model) sidebarKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.convs)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.convs) {
			_, err := m.uc.Load(m.ctx, m.convs[m.cursor].ID)
			m.afterAction(err)
		}
	case "0", "1", "2", "3", "4", "5":
		m.afterAction(m.uc.SetDraftRating(int(msg.Runes[0] - '0')))
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.input.Blur()
	m.note.Blur()
	switch f {
	case focusInput:
		m.input.Focus()
	case focusFeedback:
		m.note.Focus()
	}
}

// afterAction turns the outcome of a controller call and any queued events into
// the status line, then re-reads the view state.
func (m *Model) afterAction(err error) {
	if err != nil {
		m.setError(err)
	}
	for _, ev := range m.inbox.drain() {
		switch ev.Kind {
		case adapter.EventFeedbackSubmitted:
			m.status, m.statusOK = m.tr.T("feedback_submitted"), true
		case adapter.EventError:
			if err == nil {
				m.setError(ev.Err)
			}
		}
	}
	m.refresh()
}

func (m *Model) setError(err error) {
	m.statusOK = false
	if errors.Is(err, domain.ErrNoActiveConversation) {
		m.status = m.tr.T("no_active")
		return
	}
	m.status = m.tr.T("error_prefix", err)
	m.log.Warn().Err(err).Msg("tui action failed")
}

func (m *Model) refresh() {
	convs, err := m.uc.Conversations(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	m.convs = convs
	if m.cursor >= len(convs) {
		m.cursor = len(convs) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	d := m.uc.Drafts()
	if m.input.Value() != d.Input {
		m.input.SetValue(d.Input)
	}
	if m.note.Value() != d.Feedback {
		m.note.SetValue(d.Feedback)
	}

	msgs, err := m.uc.Messages(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	m.chat.SetContent(m.renderMessages(msgs))
	m.chat.GotoBottom()

	rows, err := m.uc.Overview(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	trows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		trows = append(trows, table.Row{i18n.FormatTimestamp(r.Timestamp), r.RatingLabel(), r.FeedbackLabel()})
	}
	m.rows.SetRows(trows)
}

func (m *Model) layout() {
	mainWidth := m.width - sidebarWidth - 4
	if mainWidth < 20 {
		mainWidth = 20
	}
	// title, input, feedback block, status and help
	chatHeight := m.height - 12
	if chatHeight < 3 {
		chatHeight = 3
	}
	m.chat.Width = mainWidth
	m.chat.Height = chatHeight
	m.input.Width = mainWidth - 4
	m.note.Width = mainWidth - 4
	m.rows.SetColumns(overviewColumns(m.tr, mainWidth))
	m.rows.SetHeight(chatHeight)
}

func (m Model) renderMessages(msgs []model.Message) string {
	var b strings.Builder
	for _, msg := range msgs {
		if msg.Sender == model.SenderUser {
			b.WriteString(userStyle.Render(m.tr.T("sender_user") + ": "))
		} else {
			b.WriteString(aiStyle.Render(m.tr.T("sender_ai") + ": "))
		}
		b.WriteString(msg.Text)
		b.WriteString("\n")
	}
	if len(m.uc.PendingReplies()) > 0 {
		b.WriteString(systemStyle.Render(m.tr.T("typing")))
	}
	return b.String()
}

func (m Model) View() string {
	main := m.viewChat()
	if m.uc.OverviewVisible() {
		main = m.viewOverview()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), main)

	status := ""
	if m.status != "" {
		if m.statusOK {
			status = okStyle.Render(m.status)
		} else {
			status = errorStyle.Render(m.status)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, status, helpStyle.Render(m.tr.T("help_tui")))
}

func (m Model) viewSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.tr.T("sidebar_title")))
	b.WriteString("\n")
	if len(m.convs) == 0 {
		b.WriteString(systemStyle.Render(m.tr.T("sidebar_empty")))
		b.WriteString("\n")
	}
	active, _ := m.uc.ActiveID()
	for i, c := range m.convs {
		label := m.tr.T("sidebar_item", i18n.FormatTimestamp(c.CreatedAt()))
		style := itemStyle
		if c.ID == active {
			style = activeItemStyle
		}
		prefix := "  "
		if m.focus == focusSidebar && i == m.cursor {
			prefix = "▸ "
		}
		b.WriteString(style.Render(prefix + label))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("ctrl+n " + m.tr.T("new_conversation")))
	b.WriteString("\n")
	toggle := m.tr.T("show_overview")
	if m.uc.OverviewVisible() {
		toggle = m.tr.T("hide_overview")
	}
	b.WriteString(helpStyle.Render("ctrl+o " + toggle))
	return sidebarStyle.Render(b.String())
}

func (m Model) viewChat() string {
	parts := []string{
		titleStyle.Render(m.tr.T("app_title")),
		m.chat.View(),
		boxStyle(m.focus == focusInput).Render(m.input.View()),
	}
	if m.uc.State() == usecase.ActiveConversation {
		d := m.uc.Drafts()
		parts = append(parts,
			titleStyle.Render(m.tr.T("feedback_title")),
			m.tr.T("rating_label", stars(d.Rating)),
			boxStyle(m.focus == focusFeedback).Render(m.note.View()),
			helpStyle.Render("ctrl+s "+m.tr.T("submit_feedback")),
		)
	}
	return mainStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewOverview() string {
	parts := []string{titleStyle.Render(m.tr.T("overview_title"))}
	if len(m.rows.Rows()) == 0 {
		parts = append(parts, systemStyle.Render(m.tr.T("overview_empty")))
	} else {
		parts = append(parts, m.rows.View())
		rows, _ := m.uc.Overview(m.ctx)
		s := usecase.Summarize(rows)
		parts = append(parts, systemStyle.Render(m.tr.T("overview_summary", s.Count, s.Average)))
	}
	return mainStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func overviewColumns(tr *i18n.Translator, width int) []table.Column {
	stamp := len(i18n.TimestampLayout) + 2
	rating := 10
	rest := width - stamp - rating - 6
	if rest < 12 {
		rest = 12
	}
	return []table.Column{
		{Title: tr.T("overview_col_conversation"), Width: stamp},
		{Title: tr.T("overview_col_rating"), Width: rating},
		{Title: tr.T("overview_col_feedback"), Width: rest},
	}
}

func stars(rating int) string {
	return fmt.Sprintf("%s%s (%d/%d)",
		strings.Repeat("★", rating), strings.Repeat("☆", model.MaxRating-rating), rating, model.MaxRating)
}
