// File: internal/infra/repl/repl.go
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain"
	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/domain/ports/adapter"
	"chatbot-feedback/internal/infra/i18n"
	"chatbot-feedback/internal/infra/scheduler"
	"chatbot-feedback/internal/usecase"
)

// REPL is the line-mode front end. Every line read from input is posted to the
// event loop, so commands and reply tasks never run concurrently.
type REPL struct {
	uc   usecase.SessionUseCase
	loop *scheduler.Loop
	tr   *i18n.Translator
	out  io.Writer
	log  *zerolog.Logger
}

var _ adapter.Notifier = (*REPL)(nil)

func New(loop *scheduler.Loop, tr *i18n.Translator, out io.Writer, logger *zerolog.Logger) *REPL {
	return &REPL{loop: loop, tr: tr, out: out, log: logger}
}

// Attach sets the controller. The REPL is created first so it can be the
// controller's notifier.
func (r *REPL) Attach(uc usecase.SessionUseCase) { r.uc = uc }

func (r *REPL) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) Notify(ev adapter.Event) {
	switch ev.Kind {
	case adapter.EventReplyAppended:
		r.printReply(ev.ConversationID)
	case adapter.EventFeedbackSubmitted:
		r.printf("%s\n", r.tr.T("feedback_submitted"))
	case adapter.EventError:
		r.printf("%s\n", r.tr.T("error_prefix", ev.Err))
	}
}

func (r *REPL) printReply(id int64) {
	convs, err := r.uc.Conversations(context.Background())
	if err != nil {
		return
	}
	for _, c := range convs {
		if c.ID != id || len(c.Messages) == 0 {
			continue
		}
		last := c.Messages[len(c.Messages)-1]
		if active, _ := r.uc.ActiveID(); active != id {
			r.printf("[%s] ", r.tr.T("sidebar_item", i18n.FormatTimestamp(c.CreatedAt())))
		}
		r.printf("%s: %s\n", r.tr.T("sender_ai"), last.Text)
		return
	}
}

// Handle executes one input line and reports whether the user asked to quit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.uc.SetDraftInput(line)
		if err := r.uc.SendDraft(ctx); err != nil {
			r.log.Debug().Err(err).Msg("send failed")
		} else if _, ok := r.uc.ActiveID(); !ok && strings.TrimSpace(line) != "" {
			r.printf("%s\n", r.tr.T("no_active"))
		}
		return false
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		r.printf("%s\n", r.tr.T("bye"))
		return true
	case "/help":
		r.printf("%s\n", r.tr.T("help_plain"))
	case "/new":
		if c, err := r.uc.StartNew(ctx); err == nil {
			r.printf("%s\n", r.tr.T("started", i18n.FormatTimestamp(c.CreatedAt())))
		}
	case "/list":
		r.printList(ctx)
	case "/load":
		r.load(ctx, arg)
	case "/rate":
		n, err := strconv.Atoi(arg)
		if err != nil || r.uc.SetDraftRating(n) != nil {
			r.printf("%s\n", r.tr.T("bad_rating"))
			return false
		}
		r.printf("%s\n", r.tr.T("rating_set", n))
	case "/note":
		r.uc.SetDraftFeedback(arg)
		r.printf("%s\n", r.tr.T("note_set"))
	case "/submit":
		if err := r.uc.SubmitDraftFeedback(ctx); err != nil {
			r.printError(err)
		}
	case "/overview":
		r.uc.ToggleOverview()
		if r.uc.OverviewVisible() {
			rows, err := r.uc.Overview(ctx)
			if err != nil {
				r.printError(err)
				return false
			}
			PrintOverview(r.out, r.tr, rows)
		}
	default:
		r.printf("%s\n", r.tr.T("unknown_command", cmd))
	}
	return false
}

// printError reports errors that did not already reach the notifier.
func (r *REPL) printError(err error) {
	switch {
	case errors.Is(err, domain.ErrNoActiveConversation):
		r.printf("%s\n", r.tr.T("no_active"))
	case errors.Is(err, domain.ErrInvalidArgument):
		r.printf("%s\n", r.tr.T("bad_rating"))
	}
}

func (r *REPL) printList(ctx context.Context) {
	convs, err := r.uc.Conversations(ctx)
	if err != nil {
		return
	}
	if len(convs) == 0 {
		r.printf("%s\n", r.tr.T("sidebar_empty"))
		return
	}
	active, _ := r.uc.ActiveID()
	for i, c := range convs {
		mark := " "
		if c.ID == active {
			mark = "*"
		}
		r.printf("%s %d. %s\n", mark, i+1, r.tr.T("sidebar_item", i18n.FormatTimestamp(c.CreatedAt())))
	}
}

func (r *REPL) load(ctx context.Context, arg string) {
	convs, err := r.uc.Conversations(ctx)
	if err != nil {
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(convs) {
		r.printf("%s\n", r.tr.T("bad_index", arg))
		return
	}
	c, err := r.uc.Load(ctx, convs[n-1].ID)
	if err != nil {
		r.printf("%s\n", r.tr.T("error_prefix", err))
		return
	}
	r.printf("%s\n", r.tr.T("loaded", i18n.FormatTimestamp(c.CreatedAt())))
	for _, m := range c.Messages {
		r.printMessage(m)
	}
}

func (r *REPL) printMessage(m model.Message) {
	who := r.tr.T("sender_user")
	if m.Sender == model.SenderAI {
		who = r.tr.T("sender_ai")
	}
	r.printf("%s: %s\n", who, m.Text)
}

// drainPoll is how often Run checks for outstanding replies after input ends.
const drainPoll = 20 * time.Millisecond

// Run reads lines from in until EOF or /quit and drives the loop in real time.
// At EOF it waits for pending replies before returning.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.printf("%s\n", r.tr.T("help_plain"))
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			line := sc.Text()
			r.loop.Post("input", func() {
				if r.Handle(ctx, line) {
					cancel()
				}
			})
		}
		if err := sc.Err(); err != nil {
			r.log.Warn().Err(err).Msg("reading input failed")
		}
		r.loop.Post("eof", func() { r.finishWhenIdle(cancel) })
	}()

	err := r.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *REPL) finishWhenIdle(cancel context.CancelFunc) {
	if len(r.uc.PendingReplies()) == 0 {
		cancel()
		return
	}
	r.loop.After("eof", drainPoll, func() { r.finishWhenIdle(cancel) })
}

// PrintOverview writes the feedback table; shared by the REPL and the overview command.
func PrintOverview(w io.Writer, tr *i18n.Translator, rows []usecase.FeedbackRow) {
	fmt.Fprintln(w, tr.T("overview_title"))
	if len(rows) == 0 {
		fmt.Fprintln(w, tr.T("overview_empty"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tr.T("overview_col_conversation"), tr.T("overview_col_rating"), tr.T("overview_col_feedback"))
	for _, row := range rows {
		t.Row(i18n.FormatTimestamp(row.Timestamp), row.RatingLabel(), row.FeedbackLabel())
	}
	fmt.Fprintln(w, t.String())
	s := usecase.Summarize(rows)
	fmt.Fprintln(w, tr.T("overview_summary", s.Count, s.Average))
}
