// Package classifier turns an inbound message into a structured relevance
// signal. Two variants exist: a semantic oracle backed by Gemini and a
// deterministic keyword heuristic. The heuristic is the fallback of record
// and is always available.
package classifier

// Intent is the classified purpose of a message.
type Intent string

const (
	IntentLawyer         Intent = "lawyer"
	IntentUrgentCase     Intent = "urgent_case"
	IntentProductInquiry Intent = "product_inquiry"
	IntentPriceInquiry   Intent = "price_inquiry"
	IntentCasual         Intent = "casual"
	IntentUnclear        Intent = "unclear"
)

// IsHot reports whether the intent alone marks the sender as a likely buyer.
func (i Intent) IsHot() bool {
	return i == IntentLawyer || i == IntentUrgentCase || i == IntentProductInquiry
}

// Urgency grades how time-sensitive the message is.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Action is the recommended next step for the sales flow.
type Action string

const (
	ActionTransferSales Action = "transfer_sales"
	ActionNurture       Action = "nurture"
	ActionCollectInfo   Action = "collect_info"
	ActionQualifyMore   Action = "qualify_more"
)

// Sentiment is the coarse emotional tone of the message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Signal is the structured output of classifying one message. It is
// ephemeral: it feeds the aggregator and the automation log but is never
// persisted standalone.
type Signal struct {
	Score     int       `json:"score"`
	Intent    Intent    `json:"intent"`
	Urgency   Urgency   `json:"urgency"`
	Action    Action    `json:"recommended_action"`
	Sentiment Sentiment `json:"sentiment"`
}
