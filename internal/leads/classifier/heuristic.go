package classifier

import (
	"strings"
	"unicode/utf8"

	"previdas_backend/internal/leads/domain"
	"previdas_backend/platform/keywords"
)

const (
	baseScore     = 20
	greetingScore = 15

	productFamilyPoints = 30
	lawyerPoints        = 40
	specialistPoints    = 25
	workplacePoints     = 25
	needPoints          = 15
	urgentPoints        = 20
	temporalPoints      = 15
	shortTextPenalty    = 5

	shortTextRunes = 8
)

// Heuristic is the deterministic keyword scorer. It is independently
// callable and exists standalone so the oracle can fail over to it.
type Heuristic struct {
	lexicon *keywords.Lexicon
}

// NewHeuristic creates the keyword scorer over the given lexicon.
func NewHeuristic(lexicon *keywords.Lexicon) *Heuristic {
	return &Heuristic{lexicon: lexicon}
}

// Classify scores the message with additive keyword rules. The prior contact
// is accepted for interface parity with the oracle; the heuristic itself is a
// pure function of the text.
func (h *Heuristic) Classify(text string, _ *domain.Contact) Signal {
	lowered := strings.ToLower(text)
	score := h.score(text, lowered)

	return Signal{
		Score:     score,
		Intent:    h.intent(lowered, score),
		Urgency:   h.urgency(lowered, score),
		Action:    recommendAction(score),
		Sentiment: sentiment(score),
	}
}

func (h *Heuristic) score(text, lowered string) int {
	if h.lexicon.IsGreeting(text) {
		return greetingScore
	}

	score := baseScore
	score += len(h.lexicon.MatchedFamilies(lowered)) * productFamilyPoints

	if keywords.ContainsAny(lowered, h.lexicon.Professional.Lawyer) {
		score += lawyerPoints
		if keywords.ContainsAny(lowered, h.lexicon.Professional.Specialist) {
			score += specialistPoints
		}
	}
	if keywords.ContainsAny(lowered, h.lexicon.Professional.Workplace) {
		score += workplacePoints
	}

	if keywords.ContainsAny(lowered, h.lexicon.Need) {
		score += needPoints
	}
	if keywords.ContainsAny(lowered, h.lexicon.Urgency) {
		score += urgentPoints
	}
	if keywords.ContainsAny(lowered, h.lexicon.Temporal) {
		score += temporalPoints
	}

	if utf8.RuneCountInString(text) < shortTextRunes {
		score -= shortTextPenalty
	}

	return domain.ClampScore(score)
}

func (h *Heuristic) intent(lowered string, score int) Intent {
	switch {
	case keywords.ContainsAny(lowered, h.lexicon.Professional.Lawyer) || score >= 70:
		return IntentLawyer
	case len(h.lexicon.MatchedFamilies(lowered)) > 0:
		return IntentProductInquiry
	case keywords.ContainsAny(lowered, h.lexicon.Price):
		return IntentPriceInquiry
	case score >= 40:
		return IntentUnclear
	default:
		return IntentCasual
	}
}

func (h *Heuristic) urgency(lowered string, score int) Urgency {
	// Need and temporal terms signal the same time pressure as the urgent
	// family, so all three map to high.
	switch {
	case keywords.ContainsAny(lowered, h.lexicon.Urgency),
		keywords.ContainsAny(lowered, h.lexicon.Need),
		keywords.ContainsAny(lowered, h.lexicon.Temporal):
		return UrgencyHigh
	case score >= 50:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func recommendAction(score int) Action {
	switch {
	case score >= 75:
		return ActionTransferSales
	case score >= 50:
		return ActionNurture
	default:
		return ActionQualifyMore
	}
}

func sentiment(score int) Sentiment {
	if score >= 60 {
		return SentimentPositive
	}
	return SentimentNeutral
}
