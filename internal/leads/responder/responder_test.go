package responder

import (
	"strings"
	"testing"

	"previdas_backend/internal/leads/domain"
)

func contact(status domain.Status, score int) *domain.Contact {
	return &domain.Contact{Identity: "619255082", Status: status, Score: score}
}

func TestTrackSelectionByStatus(t *testing.T) {
	r := New()

	cases := []struct {
		status domain.Status
		want   Track
	}{
		{domain.StatusQualified, TrackSales},
		{domain.StatusWarm, TrackNurture},
		{domain.StatusCold, TrackQualification},
		{domain.StatusNew, TrackQualification},
	}
	for _, tc := range cases {
		_, track := r.Respond("mensagem qualquer de teste", contact(tc.status, 50))
		if track != tc.want {
			t.Errorf("status %s: expected track %s, got %s", tc.status, tc.want, track)
		}
	}
}

func TestSalesTrackProductReplies(t *testing.T) {
	r := New()

	reply, _ := r.Respond("preciso do laudo BPC urgente", contact(domain.StatusQualified, 95))
	if !strings.Contains(reply, "6h") {
		t.Fatalf("urgent BPC must get the expedited reply, got %q", reply)
	}

	reply, _ = r.Respond("quero um laudo previdenciário", contact(domain.StatusQualified, 85))
	if !strings.Contains(reply, "por mês") {
		t.Fatalf("area-specific report must get the volume question, got %q", reply)
	}

	reply, _ = r.Respond("sou advogada", contact(domain.StatusQualified, 85))
	if !strings.Contains(reply, "10 anos") {
		t.Fatalf("lawyer mention must get the track-record reply, got %q", reply)
	}
}

func TestSalesTrackOffDomainOverride(t *testing.T) {
	r := New()

	reply, _ := r.Respond("vocês fazem seguro de vida?", contact(domain.StatusQualified, 85))
	if !strings.Contains(reply, "não seguros") {
		t.Fatalf("off-domain insurance question must redirect, got %q", reply)
	}

	reply, _ = r.Respond("preciso de um empréstimo", contact(domain.StatusQualified, 85))
	if !strings.Contains(reply, "laudos médicos") {
		t.Fatalf("banking question must redirect, got %q", reply)
	}
}

func TestNurtureTrackHighScoreIsDirect(t *testing.T) {
	r := New()

	reply, _ := r.Respond("tenho um caso de bpc", contact(domain.StatusWarm, 72))
	if !strings.Contains(reply, "Conectando") {
		t.Fatalf("high-score warm lead should be handed off, got %q", reply)
	}

	reply, _ = r.Respond("tenho um caso de bpc", contact(domain.StatusWarm, 55))
	if !strings.Contains(reply, "Você é advogado") {
		t.Fatalf("normal warm lead gets the qualifying question, got %q", reply)
	}
}

func TestNurtureTrackPriceQuestion(t *testing.T) {
	r := New()

	reply, _ := r.Respond("qual o valor do serviço", contact(domain.StatusWarm, 55))
	if !strings.Contains(reply, "competitivos") {
		t.Fatalf("price question gets the pricing reply, got %q", reply)
	}
}

func TestQualificationTrackShortMessage(t *testing.T) {
	r := New()

	reply, _ := r.Respond("oi", contact(domain.StatusNew, 10))
	if !strings.Contains(reply, "Qual sua profissão") {
		t.Fatalf("short message gets the profession question, got %q", reply)
	}

	reply, _ = r.Respond("gostaria de entender melhor o que fazem", contact(domain.StatusCold, 30))
	if !strings.Contains(reply, "área jurídica") {
		t.Fatalf("default qualification reply expected, got %q", reply)
	}
}

func TestQualificationTrackOffDomainWithScore(t *testing.T) {
	r := New()

	reply, _ := r.Respond("vocês vendem seguro?", contact(domain.StatusCold, 55))
	if !strings.Contains(reply, "Você trabalha com direito") {
		t.Fatalf("scored cold lead asking off-domain gets redirect, got %q", reply)
	}
}
