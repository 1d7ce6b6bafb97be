package domain

import "testing"

func TestQualifiedHoldsOnModestSignal(t *testing.T) {
	d := Transition(TransitionInput{
		PriorStatus: StatusQualified,
		PriorScore:  85,
		NewScore:    85,
		SignalScore: 20,
		TextRunes:   30,
	})
	if d.NewStatus != StatusQualified {
		t.Fatalf("expected qualified, got %s", d.NewStatus)
	}
	if d.Notify {
		t.Fatal("confirming qualified must not notify")
	}
}

func TestQualifiedDemotedOnClearlyNegativeSignal(t *testing.T) {
	d := Transition(TransitionInput{
		PriorStatus: StatusQualified,
		PriorScore:  85,
		NewScore:    85,
		SignalScore: 15,
		TextRunes:   10,
	})
	// With the hold released, the aggregated score still re-qualifies only
	// when the rules say so; signal 15 blocks rule two as well.
	if d.NewStatus == StatusQualified {
		t.Fatalf("expected demotion path, got %s", d.NewStatus)
	}
}

func TestRequalificationOnStrongAggregate(t *testing.T) {
	d := Transition(TransitionInput{
		PriorStatus: StatusWarm,
		PriorScore:  78,
		NewScore:    82,
		SignalScore: 35,
		TextRunes:   4,
	})
	if d.NewStatus != StatusQualified {
		t.Fatalf("expected qualified, got %s", d.NewStatus)
	}
	if !d.Notify {
		t.Fatal("entering qualified must notify")
	}
}

func TestFreshQualificationNeedsSubstance(t *testing.T) {
	base := TransitionInput{
		PriorStatus:        StatusNew,
		NewScore:           76,
		SignalScore:        25,
		TextRunes:          20,
		HasQualityKeywords: true,
	}

	d := Transition(base)
	if d.NewStatus != StatusQualified || !d.Notify {
		t.Fatalf("expected qualified with notify, got %+v", d)
	}

	short := base
	short.TextRunes = 4
	if got := Transition(short).NewStatus; got == StatusQualified {
		t.Fatalf("short message must not fresh-qualify, got %s", got)
	}

	noEvidence := base
	noEvidence.HasQualityKeywords = false
	noEvidence.HotIntent = false
	if got := Transition(noEvidence).NewStatus; got == StatusQualified {
		t.Fatalf("score alone must not fresh-qualify, got %s", got)
	}

	intentOnly := noEvidence
	intentOnly.HotIntent = true
	if got := Transition(intentOnly).NewStatus; got != StatusQualified {
		t.Fatalf("hot intent should substitute for keywords, got %s", got)
	}
}

func TestWarmRequiresKeywords(t *testing.T) {
	d := Transition(TransitionInput{
		PriorStatus:        StatusCold,
		NewScore:           60,
		SignalScore:        55,
		TextRunes:          25,
		HasQualityKeywords: true,
	})
	if d.NewStatus != StatusWarm {
		t.Fatalf("expected warm, got %s", d.NewStatus)
	}

	d = Transition(TransitionInput{
		PriorStatus: StatusCold,
		NewScore:    60,
		SignalScore: 55,
		TextRunes:   25,
	})
	if d.NewStatus != StatusCold {
		t.Fatalf("expected cold without keywords, got %s", d.NewStatus)
	}
}

func TestColdByDefault(t *testing.T) {
	d := Transition(TransitionInput{
		PriorStatus: StatusNew,
		NewScore:    36,
		SignalScore: 15,
		TextRunes:   4,
	})
	if d.NewStatus != StatusCold {
		t.Fatalf("expected cold, got %s", d.NewStatus)
	}
	if d.Notify {
		t.Fatal("cold must not notify")
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 10}, {0, 10}, {10, 10}, {55, 55}, {100, 100}, {140, 100},
	}
	for _, tc := range cases {
		if got := ClampScore(tc.in); got != tc.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
