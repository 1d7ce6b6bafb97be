// Package service orchestrates the per-message qualification pipeline:
// normalize, load, classify, aggregate, transition, respond, persist, log.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	"previdas_backend/internal/events"
	"previdas_backend/internal/leads/classifier"
	"previdas_backend/internal/leads/domain"
	"previdas_backend/internal/leads/repository"
	"previdas_backend/internal/leads/responder"
	"previdas_backend/internal/leads/scoring"
	"previdas_backend/platform/apperr"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/phone"
)

// welcomeMessage greets a lead registered outside the message pipeline.
const welcomeMessage = "Olá! Sou da Previdas, especialistas em laudos médicos para advogados. Como posso ajudar?"

// ContactStore is the persistence surface the pipeline needs. Writes happen
// once, at the end of a fully computed transition.
type ContactStore interface {
	GetByIdentity(ctx context.Context, identity string) (*domain.Contact, error)
	Upsert(ctx context.Context, contact *domain.Contact) error
	AppendConversation(ctx context.Context, identity, text string, isBot bool, timestamp time.Time) error
	LogAutomation(ctx context.Context, identity, action, details string) error
}

// Queries is the read/admin surface backing the management endpoints.
type Queries interface {
	List(ctx context.Context, params repository.ListParams) ([]domain.Contact, error)
	Delete(ctx context.Context, identity string) error
	ListConversation(ctx context.Context, identity string, limit int) ([]repository.Message, error)
	ListAutomationLogs(ctx context.Context, identity string, limit int) ([]repository.AutomationLog, error)
	DashboardMetrics(ctx context.Context) (*repository.DashboardMetrics, error)
	StatusCounts(ctx context.Context) (map[string]int, error)
}

// MessageSender delivers outbound replies. Delivery is best effort; the
// pipeline logs the bot response regardless of send success.
type MessageSender interface {
	Send(ctx context.Context, identity, text string) error
}

// Unlocker releases a held identity lease.
type Unlocker interface {
	Release(ctx context.Context) error
}

// Locker serializes processing per identity. Messages for different
// identities proceed in parallel; two messages for the same contact must
// not interleave their read-score-write cycles.
type Locker interface {
	Acquire(ctx context.Context, identity string) (Unlocker, error)
}

// Service runs the qualification pipeline.
type Service struct {
	normalizer *phone.Normalizer
	classifier *classifier.Classifier
	aggregator *scoring.Aggregator
	responder  *responder.Responder
	store      ContactStore
	queries    Queries
	sender     MessageSender
	locker     Locker
	bus        events.Bus
	log        *logger.Logger
}

// New wires the pipeline. sender and locker may be nil (CLI and test hosts).
func New(
	normalizer *phone.Normalizer,
	cls *classifier.Classifier,
	aggregator *scoring.Aggregator,
	resp *responder.Responder,
	store ContactStore,
	queries Queries,
	sender MessageSender,
	locker Locker,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		normalizer: normalizer,
		classifier: cls,
		aggregator: aggregator,
		responder:  resp,
		store:      store,
		queries:    queries,
		sender:     sender,
		locker:     locker,
		bus:        bus,
		log:        log,
	}
}

// Result reports what one processed message did to the contact.
type Result struct {
	Identity    string            `json:"identity"`
	PriorStatus domain.Status     `json:"priorStatus"`
	Status      domain.Status     `json:"status"`
	PriorScore  int               `json:"priorScore"`
	Score       int               `json:"score"`
	Signal      classifier.Signal `json:"signal"`
	Response    string            `json:"response"`
	Track       responder.Track   `json:"track"`
	Notified    bool              `json:"notified"`
}

// ProcessMessage runs the full pipeline for one inbound message.
func (s *Service) ProcessMessage(ctx context.Context, rawIdentity, text string) (*Result, error) {
	identity := s.normalizer.Normalize(rawIdentity)
	if identity == "" {
		return nil, apperr.Validation("invalid phone identity")
	}

	if s.locker != nil {
		lease, err := s.locker.Acquire(ctx, identity)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "could not serialize contact processing", err)
		}
		defer func() { _ = lease.Release(ctx) }()
	}

	contact, _, err := s.loadContact(ctx, identity)
	if err != nil {
		return nil, err
	}

	priorStatus := contact.Status
	priorScore := contact.Score

	sig := s.classifier.Classify(ctx, text, contact)
	newScore := s.aggregator.Aggregate(priorScore, sig, text)
	hasKeywords := s.aggregator.HasQualityKeywords(text)

	decision := domain.Transition(domain.TransitionInput{
		PriorStatus:        priorStatus,
		PriorScore:         priorScore,
		NewScore:           newScore,
		SignalScore:        sig.Score,
		HotIntent:          sig.Intent.IsHot(),
		TextRunes:          utf8.RuneCountInString(text),
		HasQualityKeywords: hasKeywords,
	})

	contact.Score = newScore
	contact.Status = decision.NewStatus
	contact.UpdatedAt = time.Now().UTC()

	reply, track := s.responder.Respond(text, contact)

	// Persistence is the single write of the transaction; nothing before
	// this point has touched the store.
	if err := s.store.Upsert(ctx, contact); err != nil {
		s.log.DatabaseError("upsert lead", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "contact store unavailable", err)
	}

	s.logInteraction(ctx, identity, text, reply, sig, decision, priorScore, newScore)
	s.log.ScoringDecision(identity, priorScore, sig.Score, newScore, string(priorStatus), string(decision.NewStatus))

	if s.sender != nil {
		if err := s.sender.Send(ctx, identity, reply); err != nil {
			s.log.Warn("outbound send failed", "identity", identity, "error", err)
		}
	}

	if decision.Notify && s.bus != nil {
		s.bus.Publish(ctx, events.NewLeadQualified(contact, sig.Score))
	}

	return &Result{
		Identity:    identity,
		PriorStatus: priorStatus,
		Status:      decision.NewStatus,
		PriorScore:  priorScore,
		Score:       newScore,
		Signal:      sig,
		Response:    reply,
		Track:       track,
		Notified:    decision.Notify,
	}, nil
}

// loadContact fetches the record or synthesizes the bootstrap default. A
// missing record is policy, not an error; any other store failure is fatal
// for the event. The second return reports whether the contact was
// synthesized rather than loaded.
func (s *Service) loadContact(ctx context.Context, identity string) (*domain.Contact, bool, error) {
	contact, err := s.store.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewContact(identity), true, nil
		}
		s.log.DatabaseError("get lead", err)
		return nil, false, apperr.Wrap(apperr.KindUnavailable, "contact store unavailable", err)
	}
	return contact, false, nil
}

// logInteraction appends both conversation sides and the automation trace.
// Logging failures are recorded but do not fail the already-persisted event.
func (s *Service) logInteraction(ctx context.Context, identity, text, reply string, sig classifier.Signal, decision domain.Decision, priorScore, newScore int) {
	now := time.Now().UTC()
	if err := s.store.AppendConversation(ctx, identity, text, false, now); err != nil {
		s.log.DatabaseError("append inbound message", err)
	}
	if err := s.store.AppendConversation(ctx, identity, reply, true, now); err != nil {
		s.log.DatabaseError("append bot message", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"signal":     sig,
		"priorScore": priorScore,
		"newScore":   newScore,
		"newStatus":  decision.NewStatus,
		"notified":   decision.Notify,
	})
	if err := s.store.LogAutomation(ctx, identity, "message_processed", string(details)); err != nil {
		s.log.DatabaseError("log automation", err)
	}
}

// RegisterParams creates or refreshes a lead outside the message pipeline.
type RegisterParams struct {
	Phone  string `json:"phone" validate:"required"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// RegisterLead upserts a lead from a registration event (site form, manual
// entry). Status and score stay at their bootstrap values for new contacts.
func (s *Service) RegisterLead(ctx context.Context, params RegisterParams) (*domain.Contact, error) {
	identity := s.normalizer.Normalize(params.Phone)
	if identity == "" {
		return nil, apperr.Validation("invalid phone identity")
	}

	contact, isNew, err := s.loadContact(ctx, identity)
	if err != nil {
		return nil, err
	}

	if params.Name != "" {
		contact.Name = params.Name
	}
	if params.Source != "" {
		contact.Source = params.Source
	}
	contact.Score = domain.ClampScore(contact.Score)
	if isNew {
		// Bootstrap contacts keep score 0 until their first message.
		contact.Score = 0
	}
	contact.UpdatedAt = time.Now().UTC()

	if err := s.store.Upsert(ctx, contact); err != nil {
		s.log.DatabaseError("upsert lead", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "contact store unavailable", err)
	}

	if isNew {
		if s.sender != nil {
			if err := s.sender.Send(ctx, identity, welcomeMessage); err != nil {
				s.log.Warn("welcome send failed", "identity", identity, "error", err)
			} else if err := s.store.AppendConversation(ctx, identity, welcomeMessage, true, time.Now().UTC()); err != nil {
				s.log.DatabaseError("append welcome message", err)
			}
		}
		if err := s.store.LogAutomation(ctx, identity, "new_lead", "welcome_sent"); err != nil {
			s.log.DatabaseError("log automation", err)
		}
		if s.bus != nil {
			s.bus.Publish(ctx, events.LeadRegistered{
				BaseEvent: events.NewBaseEvent(),
				Identity:  identity,
				Name:      contact.Name,
				Source:    contact.Source,
			})
		}
	}
	return contact, nil
}

// GetLead returns one lead by raw phone. Unlike the pipeline, a missing
// record here is a plain not-found for the API caller.
func (s *Service) GetLead(ctx context.Context, rawIdentity string) (*domain.Contact, error) {
	identity := s.normalizer.Normalize(rawIdentity)
	if identity == "" {
		return nil, apperr.Validation("invalid phone identity")
	}

	contact, err := s.store.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "contact store unavailable", err)
	}
	return contact, nil
}

// ListLeads pages the lead book.
func (s *Service) ListLeads(ctx context.Context, params repository.ListParams) ([]domain.Contact, error) {
	if params.Status != "" && !domain.IsKnownStatus(params.Status) {
		return nil, apperr.Validation("unknown status filter")
	}
	return s.queries.List(ctx, params)
}

// DeleteLead removes a lead. Administrative action, never driven by the engine.
func (s *Service) DeleteLead(ctx context.Context, rawIdentity string) error {
	identity := s.normalizer.Normalize(rawIdentity)
	if identity == "" {
		return apperr.Validation("invalid phone identity")
	}
	if err := s.queries.Delete(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return apperr.Wrap(apperr.KindUnavailable, "contact store unavailable", err)
	}
	return nil
}

// Conversation returns the recent message history for a lead.
func (s *Service) Conversation(ctx context.Context, rawIdentity string, limit int) ([]repository.Message, error) {
	identity := s.normalizer.Normalize(rawIdentity)
	if identity == "" {
		return nil, apperr.Validation("invalid phone identity")
	}
	return s.queries.ListConversation(ctx, identity, limit)
}

// AutomationLogs returns the recent engine decisions for a lead.
func (s *Service) AutomationLogs(ctx context.Context, rawIdentity string, limit int) ([]repository.AutomationLog, error) {
	identity := s.normalizer.Normalize(rawIdentity)
	if identity == "" {
		return nil, apperr.Validation("invalid phone identity")
	}
	return s.queries.ListAutomationLogs(ctx, identity, limit)
}

// Dashboard returns the aggregated funnel metrics.
func (s *Service) Dashboard(ctx context.Context) (*repository.DashboardMetrics, error) {
	return s.queries.DashboardMetrics(ctx)
}

// Stats returns the per-status lead counts.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	return s.queries.StatusCounts(ctx)
}
