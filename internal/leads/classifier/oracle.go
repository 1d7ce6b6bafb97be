package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"previdas_backend/internal/leads/domain"
)

// Config provides the oracle's settings.
type Config interface {
	GetClassifierAPIKey() string
	GetClassifierModel() string
	GetClassifierTimeout() time.Duration
	IsClassifierEnabled() bool
}

// Oracle scores messages with a Gemini structured completion. Any error,
// timeout, or malformed response surfaces as an error so the caller can fall
// back to the heuristic.
type Oracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewOracle creates the Gemini-backed classifier.
func NewOracle(ctx context.Context, cfg Config) (*Oracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetClassifierAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create classifier client: %w", err)
	}

	return &Oracle{
		client:  client,
		model:   cfg.GetClassifierModel(),
		timeout: cfg.GetClassifierTimeout(),
	}, nil
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":              {Type: genai.TypeInteger},
		"intent":             {Type: genai.TypeString, Enum: []string{"lawyer", "urgent_case", "product_inquiry", "price_inquiry", "casual", "unclear"}},
		"urgency":            {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
		"recommended_action": {Type: genai.TypeString, Enum: []string{"transfer_sales", "nurture", "collect_info", "qualify_more"}},
		"sentiment":          {Type: genai.TypeString, Enum: []string{"positive", "neutral", "negative"}},
	},
	Required: []string{"score", "intent", "urgency", "recommended_action", "sentiment"},
}

// Classify asks the model for a relevance signal with a bounded timeout.
func (o *Oracle) Classify(ctx context.Context, text string, prior *domain.Contact) (Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(o.prompt(text, prior)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return Signal{}, fmt.Errorf("classifier call: %w", err)
	}

	return parseSignal(resp.Text())
}

func (o *Oracle) prompt(text string, prior *domain.Contact) string {
	var b strings.Builder
	b.WriteString("Você analisa mensagens de WhatsApp recebidas por uma empresa que vende laudos e perícias médicas para advogados previdenciários e trabalhistas.\n")
	b.WriteString("Avalie a relevância comercial da mensagem de 0 a 100 e classifique intenção, urgência, ação recomendada e sentimento.\n")
	if prior != nil {
		fmt.Fprintf(&b, "Contexto do contato: status atual %s, pontuação %d.\n", prior.Status, prior.Score)
	}
	fmt.Fprintf(&b, "Mensagem: %q", text)
	return b.String()
}

func parseSignal(raw string) (Signal, error) {
	var payload struct {
		Score     int    `json:"score"`
		Intent    string `json:"intent"`
		Urgency   string `json:"urgency"`
		Action    string `json:"recommended_action"`
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Signal{}, fmt.Errorf("malformed classifier response: %w", err)
	}
	if payload.Score < 0 || payload.Score > 100 {
		return Signal{}, fmt.Errorf("classifier score %d out of range", payload.Score)
	}

	sig := Signal{
		Score:     payload.Score,
		Intent:    Intent(payload.Intent),
		Urgency:   Urgency(payload.Urgency),
		Action:    Action(payload.Action),
		Sentiment: Sentiment(payload.Sentiment),
	}
	if !validSignal(sig) {
		return Signal{}, fmt.Errorf("classifier returned unknown enum value")
	}
	return sig, nil
}

func validSignal(sig Signal) bool {
	switch sig.Intent {
	case IntentLawyer, IntentUrgentCase, IntentProductInquiry, IntentPriceInquiry, IntentCasual, IntentUnclear:
	default:
		return false
	}
	switch sig.Urgency {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
	default:
		return false
	}
	switch sig.Action {
	case ActionTransferSales, ActionNurture, ActionCollectInfo, ActionQualifyMore:
	default:
		return false
	}
	switch sig.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		return false
	}
	return true
}
