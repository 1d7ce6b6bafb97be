package classifier

import (
	"context"
	"errors"
	"testing"

	"previdas_backend/internal/leads/domain"
	"previdas_backend/platform/keywords"
	"previdas_backend/platform/logger"
)

type fakeRemote struct {
	sig   Signal
	err   error
	calls int
}

func (f *fakeRemote) Classify(_ context.Context, _ string, _ *domain.Contact) (Signal, error) {
	f.calls++
	return f.sig, f.err
}

func newFailover(t *testing.T, remote Remote) *Classifier {
	t.Helper()
	lex, err := keywords.Default()
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	return New(remote, NewHeuristic(lex), logger.New("development"))
}

func TestClassifierPrefersOracle(t *testing.T) {
	remote := &fakeRemote{sig: Signal{
		Score:     88,
		Intent:    IntentLawyer,
		Urgency:   UrgencyHigh,
		Action:    ActionTransferSales,
		Sentiment: SentimentPositive,
	}}
	c := newFailover(t, remote)

	sig := c.Classify(context.Background(), "mensagem qualquer", nil)
	if sig.Score != 88 {
		t.Fatalf("expected oracle signal, got score %d", sig.Score)
	}
	if remote.calls != 1 {
		t.Fatalf("expected one oracle call, got %d", remote.calls)
	}
}

func TestClassifierFallsBackOnOracleError(t *testing.T) {
	remote := &fakeRemote{err: errors.New("upstream timeout")}
	c := newFailover(t, remote)

	sig := c.Classify(context.Background(), "preciso do laudo BPC", nil)
	if sig.Score != 95 {
		t.Fatalf("expected heuristic signal 95, got %d", sig.Score)
	}
}

func TestClassifierWorksWithoutOracle(t *testing.T) {
	c := newFailover(t, nil)

	sig := c.Classify(context.Background(), "oi", nil)
	if sig.Score != 15 {
		t.Fatalf("expected heuristic greeting score, got %d", sig.Score)
	}
}

func TestParseSignalRejectsMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "plain text answer"},
		{"score out of range", `{"score":140,"intent":"lawyer","urgency":"high","recommended_action":"nurture","sentiment":"positive"}`},
		{"unknown intent", `{"score":50,"intent":"buyer","urgency":"high","recommended_action":"nurture","sentiment":"positive"}`},
		{"unknown action", `{"score":50,"intent":"casual","urgency":"low","recommended_action":"escalate","sentiment":"neutral"}`},
	}

	for _, tc := range cases {
		if _, err := parseSignal(tc.raw); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestParseSignalAcceptsValidResponse(t *testing.T) {
	sig, err := parseSignal(`{"score":72,"intent":"product_inquiry","urgency":"medium","recommended_action":"nurture","sentiment":"positive"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sig.Score != 72 || sig.Intent != IntentProductInquiry {
		t.Fatalf("unexpected signal %+v", sig)
	}
}
