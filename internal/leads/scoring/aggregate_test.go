package scoring

import (
	"testing"

	"previdas_backend/internal/leads/classifier"
	"previdas_backend/platform/keywords"
)

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	lex, err := keywords.Default()
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	return New(lex)
}

func sig(score int) classifier.Signal {
	return classifier.Signal{Score: score}
}

func TestOnTopicFloor(t *testing.T) {
	a := newAggregator(t)

	// Product keyword forces the floor regardless of prior and signal.
	if got := a.Aggregate(10, sig(5), "me fala do laudo"); got != 70 {
		t.Fatalf("expected floor 70, got %d", got)
	}
	// Floor never lowers an already higher prior or signal.
	if got := a.Aggregate(90, sig(5), "me fala do laudo"); got != 90 {
		t.Fatalf("expected prior 90 kept, got %d", got)
	}
	if got := a.Aggregate(10, sig(95), "preciso do laudo BPC"); got != 95 {
		t.Fatalf("expected signal 95 kept, got %d", got)
	}
}

func TestGoodSignalNeverLowers(t *testing.T) {
	a := newAggregator(t)

	if got := a.Aggregate(80, sig(65), "mensagem sem palavras-chave relevantes"); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := a.Aggregate(40, sig(65), "mensagem sem palavras-chave relevantes"); got != 65 {
		t.Fatalf("expected 65, got %d", got)
	}
}

func TestNeutralSignalNudges(t *testing.T) {
	a := newAggregator(t)

	// round(80*0.85 + 45*0.15) = round(74.75) = 75
	if got := a.Aggregate(80, sig(45), "mensagem comum de tamanho normal"); got != 75 {
		t.Fatalf("expected 75, got %d", got)
	}
	// Prior dominates: round(20*0.85 + 55*0.15) = round(25.25) = 25
	if got := a.Aggregate(20, sig(55), "mensagem comum de tamanho normal"); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestLimitedDecayForShortLowSignal(t *testing.T) {
	a := newAggregator(t)

	// max(40-10, 40*0.9, 20) = max(30, 36, 20) = 36
	if got := a.Aggregate(40, sig(15), "ok?"); got != 36 {
		t.Fatalf("expected 36, got %d", got)
	}
	// High prior loses at most 10 points: max(80, 81, 20) = 81
	if got := a.Aggregate(90, sig(15), "não"); got != 81 {
		t.Fatalf("expected 81, got %d", got)
	}
	// Decay never goes below 20 (then clamped to engine floor).
	if got := a.Aggregate(12, sig(15), "não"); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}
}

func TestLowSignalNormalLengthUnchanged(t *testing.T) {
	a := newAggregator(t)

	if got := a.Aggregate(55, sig(15), "quero saber sobre outro assunto"); got != 55 {
		t.Fatalf("expected unchanged 55, got %d", got)
	}
}

func TestGreetingNeverDecays(t *testing.T) {
	a := newAggregator(t)

	if got := a.Aggregate(40, sig(15), "oi"); got != 40 {
		t.Fatalf("greeting must not decay the score, got %d", got)
	}
	// Brand-new contact: prior 0 clamps up to the engine floor.
	if got := a.Aggregate(0, sig(15), "oi"); got != 10 {
		t.Fatalf("expected clamp to 10, got %d", got)
	}
}

func TestAggregateAlwaysInRange(t *testing.T) {
	a := newAggregator(t)

	priors := []int{0, 10, 40, 85, 100}
	signals := []int{0, 15, 45, 65, 100}
	texts := []string{"", "oi", "não", "preciso do laudo BPC", "mensagem comum de tamanho normal"}

	for _, p := range priors {
		for _, s := range signals {
			for _, text := range texts {
				got := a.Aggregate(p, sig(s), text)
				if got < 10 || got > 100 {
					t.Errorf("Aggregate(%d, %d, %q) = %d out of [10,100]", p, s, text, got)
				}
			}
		}
	}
}

func TestHasQualityKeywords(t *testing.T) {
	a := newAggregator(t)

	cases := []struct {
		text string
		want bool
	}{
		{"preciso do laudo", true},
		{"sou advogado", true},
		{"é urgente", true},
		{"necessito disso para amanhã", true},
		{"tenho audiência hoje", true},
		{"mensagem neutra qualquer", false},
		{"oi", false},
	}
	for _, tc := range cases {
		if got := a.HasQualityKeywords(tc.text); got != tc.want {
			t.Errorf("HasQualityKeywords(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
