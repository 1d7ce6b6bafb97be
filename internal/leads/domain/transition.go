package domain

// TransitionInput carries everything the status rules need for one message.
// SignalScore is the per-message classifier score, NewScore the already
// aggregated contact score.
type TransitionInput struct {
	PriorStatus        Status
	PriorScore         int
	NewScore           int
	SignalScore        int
	HotIntent          bool // professional or product-inquiry intent
	TextRunes          int
	HasQualityKeywords bool
}

// Decision is the outcome of a status transition.
type Decision struct {
	NewStatus Status
	// Notify is set when the contact crosses into qualified from any other
	// status. Confirming an already qualified contact never re-notifies.
	Notify bool
}

// Transition applies the qualification rules in priority order. Historical
// context wins over single-message signals: a qualified contact is only
// demoted when the message signal is clearly negative.
func Transition(in TransitionInput) Decision {
	status := decideStatus(in)
	return Decision{
		NewStatus: status,
		Notify:    status == StatusQualified && in.PriorStatus != StatusQualified,
	}
}

func decideStatus(in TransitionInput) Status {
	// A previously qualified contact holds its status unless the message
	// signal is clearly negative.
	if in.PriorStatus == StatusQualified && in.SignalScore >= 20 {
		return StatusQualified
	}

	// Re-qualification on a strong aggregated score backed by a decent signal.
	if in.NewScore >= 80 && in.SignalScore >= 30 {
		return StatusQualified
	}

	// Fresh qualification requires score, substance, and a non-trivial message.
	if in.NewScore >= 75 && (in.HasQualityKeywords || in.HotIntent) && in.TextRunes > 5 {
		return StatusQualified
	}

	if in.NewScore >= 50 && in.HasQualityKeywords {
		return StatusWarm
	}

	return StatusCold
}
