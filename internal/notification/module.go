// Package notification delivers the sales-handoff alert when a lead crosses
// into qualified. It subscribes to domain events so the pipeline never needs
// to know about email providers or message templates.
package notification

import (
	"context"
	"fmt"
	"html"

	"previdas_backend/internal/events"
	"previdas_backend/platform/config"
	"previdas_backend/platform/logger"
)

// WhatsAppSender pings the sales team phone. Optional.
type WhatsAppSender interface {
	Send(ctx context.Context, identity, text string) error
}

// Module handles qualification notifications.
type Module struct {
	email    EmailSender
	whatsapp WhatsAppSender
	cfg      config.SalesHandoffConfig
	log      *logger.Logger
}

// New creates the notification module. email and whatsapp may be nil; the
// module delivers on whichever channels are configured.
func New(email EmailSender, whatsapp WhatsAppSender, cfg config.SalesHandoffConfig, log *logger.Logger) *Module {
	return &Module{email: email, whatsapp: whatsapp, cfg: cfg, log: log}
}

// Subscribe registers the module's event handlers on the bus.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadQualified{}.EventName(), events.HandlerFunc(m.handleLeadQualified))
}

func (m *Module) handleLeadQualified(ctx context.Context, event events.Event) error {
	qualified, ok := event.(events.LeadQualified)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if m.email != nil && m.cfg.IsSalesEmailEnabled() {
		subject := fmt.Sprintf("Lead quente: %s (score %d)", displayName(qualified), qualified.Score)
		if err := m.email.Send(ctx, m.cfg.GetSalesTeamEmail(), subject, renderEmail(qualified)); err != nil {
			m.log.Error("sales handoff email failed", "identity", qualified.Identity, "error", err)
			return err
		}
	}

	if m.whatsapp != nil && m.cfg.GetSalesTeamPhone() != "" {
		text := fmt.Sprintf("🔥 Lead quente qualificado!\nContato: %s\nTelefone: %s\nScore: %d\nEntre em contato agora.",
			displayName(qualified), qualified.Identity, qualified.Score)
		if err := m.whatsapp.Send(ctx, m.cfg.GetSalesTeamPhone(), text); err != nil {
			m.log.Warn("sales handoff whatsapp failed", "identity", qualified.Identity, "error", err)
		}
	}

	m.log.Info("sales handoff delivered",
		"identity", qualified.Identity,
		"score", qualified.Score,
		"signalScore", qualified.SignalScore,
	)
	return nil
}

func displayName(q events.LeadQualified) string {
	if q.Name != "" {
		return q.Name
	}
	return q.Identity
}

func renderEmail(q events.LeadQualified) string {
	return fmt.Sprintf(`<h2>Lead qualificado</h2>
<p><strong>Contato:</strong> %s</p>
<p><strong>Telefone:</strong> %s</p>
<p><strong>Score:</strong> %d (mensagem: %d)</p>
<p><strong>Origem:</strong> %s</p>
<p>Este lead atingiu o critério de qualificação e espera contato do time comercial.</p>`,
		html.EscapeString(displayName(q)), html.EscapeString(q.Identity), q.Score, q.SignalScore, html.EscapeString(q.Source))
}
