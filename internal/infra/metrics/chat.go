package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(conversationsCreated, messagesAppended, feedbackSubmitted, feedbackRating, pendingReplies)
}

var (
	conversationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_conversations_created_total",
			Help: "Conversations started.",
		},
	)

	messagesAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Messages appended to conversations, by sender.",
		},
		[]string{"sender"}, // 'user', 'ai'
	)

	feedbackSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_feedback_submitted_total",
			Help: "Feedback submissions (including overwrites).",
		},
	)

	feedbackRating = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_feedback_rating",
			Help:    "Distribution of submitted ratings.",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	pendingReplies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_pending_replies",
			Help: "Scheduled responder replies that have not fired yet.",
		},
	)
)

func IncConversationCreated() { conversationsCreated.Inc() }

func IncMessageAppended(sender string) {
	messagesAppended.WithLabelValues(norm(sender)).Inc()
}

func ObserveFeedback(rating int) {
	feedbackSubmitted.Inc()
	feedbackRating.Observe(float64(rating))
}

func SetPendingReplies(n int) { pendingReplies.Set(float64(n)) }
