// Package scoring fuses a per-message classifier signal with a contact's
// persisted score. The blend is asymmetric: positive evidence sticks
// immediately, negative evidence decays the score slowly and only for
// clearly low-value messages.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"previdas_backend/internal/leads/classifier"
	"previdas_backend/internal/leads/domain"
	"previdas_backend/platform/keywords"
)

const (
	onTopicFloor   = 70
	goodSignal     = 60
	neutralSignal  = 40
	decayStep      = 10
	decayFloor     = 20
	decayRetention = 0.9
	priorWeight    = 0.85
	decayMaxRunes  = 6
)

// Aggregator combines prior score, signal, and message text into the
// contact's updated score.
type Aggregator struct {
	lexicon *keywords.Lexicon
}

// New creates an Aggregator over the given lexicon.
func New(lexicon *keywords.Lexicon) *Aggregator {
	return &Aggregator{lexicon: lexicon}
}

// Aggregate applies the tiered blending rules in priority order and returns
// a score clamped to [10, 100].
func (a *Aggregator) Aggregate(priorScore int, sig classifier.Signal, text string) int {
	lowered := strings.ToLower(text)

	var newScore int
	switch {
	case a.isOnTopic(lowered):
		// On-topic messages guarantee a floor of 70 no matter how weak
		// the prior or the classifier reading.
		newScore = maxInt(priorScore, sig.Score, onTopicFloor)

	case sig.Score >= goodSignal:
		// Good messages never lower the score.
		newScore = maxInt(priorScore, sig.Score)

	case sig.Score >= neutralSignal:
		// Neutral messages nudge gently toward the signal, prior dominates.
		newScore = int(math.Round(float64(priorScore)*priorWeight + float64(sig.Score)*(1-priorWeight)))

	default:
		newScore = a.decay(priorScore, text)
	}

	return domain.ClampScore(newScore)
}

// HasQualityKeywords reports whether the text matches any product,
// professional, urgency, need, or temporal keyword family. The state machine
// gates warm and qualified transitions on this.
func (a *Aggregator) HasQualityKeywords(text string) bool {
	lowered := strings.ToLower(text)
	return a.isOnTopic(lowered) ||
		keywords.ContainsAny(lowered, a.lexicon.Urgency) ||
		keywords.ContainsAny(lowered, a.lexicon.Need) ||
		keywords.ContainsAny(lowered, a.lexicon.Temporal)
}

// isOnTopic reports a product or professional keyword match, the families
// that trigger the on-topic floor.
func (a *Aggregator) isOnTopic(lowered string) bool {
	if len(a.lexicon.MatchedFamilies(lowered)) > 0 {
		return true
	}
	return keywords.ContainsAny(lowered, a.lexicon.Professional.Lawyer) ||
		keywords.ContainsAny(lowered, a.lexicon.Professional.Specialist) ||
		keywords.ContainsAny(lowered, a.lexicon.Professional.Workplace)
}

// decay applies limited decay for very short non-greeting messages with a
// poor signal. Everything else leaves the score unchanged.
func (a *Aggregator) decay(priorScore int, text string) int {
	if utf8.RuneCountInString(text) >= decayMaxRunes || a.lexicon.IsGreeting(text) {
		return priorScore
	}
	retained := int(float64(priorScore) * decayRetention)
	return maxInt(priorScore-decayStep, retained, decayFloor)
}

func maxInt(values ...int) int {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}
