// File: internal/usecase/feedback_uc.go
package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/domain/ports/repository"
)

const (
	noRatingLabel   = "No Rating"
	noFeedbackLabel = "No Feedback"
)

// FeedbackRow is one line of the feedback overview.
type FeedbackRow struct {
	ConversationID     int64
	Timestamp          time.Time
	Rating             int
	SubjectiveFeedback string
}

// RatingLabel renders a zero rating as "No Rating".
func (r FeedbackRow) RatingLabel() string {
	if r.Rating == 0 {
		return noRatingLabel
	}
	return strconv.Itoa(r.Rating)
}

// FeedbackLabel renders empty text as "No Feedback".
func (r FeedbackRow) FeedbackLabel() string {
	if r.SubjectiveFeedback == "" {
		return noFeedbackLabel
	}
	return r.SubjectiveFeedback
}

// Overview keeps only conversations with feedback and orders them by rating,
// highest first. Equal ratings keep their creation order.
func Overview(convs []*model.Conversation) []FeedbackRow {
	rows := make([]FeedbackRow, 0, len(convs))
	for _, c := range convs {
		if c == nil || c.Feedback == nil {
			continue
		}
		rows = append(rows, FeedbackRow{
			ConversationID:     c.ID,
			Timestamp:          c.CreatedAt(),
			Rating:             c.Feedback.Rating,
			SubjectiveFeedback: c.Feedback.SubjectiveFeedback,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rating > rows[j].Rating })
	return rows
}

type Summary struct {
	Count   int
	Average float64
}

// Summarize counts the rows and averages their ratings; Average is 0 for no rows.
func Summarize(rows []FeedbackRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range rows {
		total += r.Rating
	}
	return Summary{Count: len(rows), Average: float64(total) / float64(len(rows))}
}

// Compile-time check
var _ FeedbackUseCase = (*feedbackUC)(nil)

type FeedbackUseCase interface {
	Overview(ctx context.Context) ([]FeedbackRow, error)
	Summary(ctx context.Context) (Summary, error)
}

type feedbackUC struct {
	store repository.ConversationRepository
	log   *zerolog.Logger
}

func NewFeedbackUseCase(store repository.ConversationRepository, logger *zerolog.Logger) *feedbackUC {
	return &feedbackUC{store: store, log: logger}
}

func (f *feedbackUC) Overview(ctx context.Context) ([]FeedbackRow, error) {
	convs, err := f.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return Overview(convs), nil
}

func (f *feedbackUC) Summary(ctx context.Context) (Summary, error) {
	rows, err := f.Overview(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summarize(rows)
	f.log.Debug().Int("rows", s.Count).Float64("average", s.Average).Msg("feedback summary")
	return s, nil
}
