package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"previdas_backend/internal/events"
	"previdas_backend/internal/leads/classifier"
	"previdas_backend/internal/leads/domain"
	"previdas_backend/internal/leads/repository"
	"previdas_backend/internal/leads/responder"
	"previdas_backend/internal/leads/scoring"
	"previdas_backend/platform/apperr"
	"previdas_backend/platform/keywords"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/phone"
)

type memoryStore struct {
	mu         sync.Mutex
	contacts   map[string]*domain.Contact
	messages   []string
	botFlags   []bool
	logActions []string
	failGet    bool
	failUpsert bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{contacts: make(map[string]*domain.Contact)}
}

func (m *memoryStore) GetByIdentity(_ context.Context, identity string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	contact, ok := m.contacts[identity]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *contact
	return &clone, nil
}

func (m *memoryStore) Upsert(_ context.Context, contact *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return errors.New("connection refused")
	}
	clone := *contact
	m.contacts[contact.Identity] = &clone
	return nil
}

func (m *memoryStore) AppendConversation(_ context.Context, _ string, text string, isBot bool, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	m.botFlags = append(m.botFlags, isBot)
	return nil
}

func (m *memoryStore) LogAutomation(_ context.Context, _ string, action string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logActions = append(m.logActions, action)
	return nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSender) Send(_ context.Context, _ string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return r.err
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) qualifiedEvents() []events.LeadQualified {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.LeadQualified
	for _, e := range b.published {
		if q, ok := e.(events.LeadQualified); ok {
			out = append(out, q)
		}
	}
	return out
}

type phoneConfig struct{}

func (phoneConfig) GetPhoneDefaultRegion() string  { return "BR" }
func (phoneConfig) GetPhoneLocalNumberLength() int { return 10 }

type fixture struct {
	service *Service
	store   *memoryStore
	sender  *recordingSender
	bus     *recordingBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lex, err := keywords.Default()
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	log := logger.New("development")
	store := newMemoryStore()
	sender := &recordingSender{}
	bus := &recordingBus{}

	svc := New(
		phone.NewNormalizer(phoneConfig{}),
		classifier.New(nil, classifier.NewHeuristic(lex), log),
		scoring.New(lex),
		responder.New(),
		store,
		nil,
		sender,
		nil,
		bus,
		log,
	)
	return &fixture{service: svc, store: store, sender: sender, bus: bus}
}

func TestProcessMessageQualifiesNewLead(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.ProcessMessage(context.Background(), "+55 (11) 98765-4321", "preciso do laudo BPC")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if result.Identity != "11987654321" {
		t.Fatalf("unexpected identity %q", result.Identity)
	}
	if result.Status != domain.StatusQualified {
		t.Fatalf("expected qualified, got %s", result.Status)
	}
	if result.Score < 70 {
		t.Fatalf("on-topic message must floor at 70, got %d", result.Score)
	}
	if !result.Notified {
		t.Fatal("first qualification must notify")
	}

	events := f.bus.qualifiedEvents()
	if len(events) != 1 {
		t.Fatalf("expected one qualified event, got %d", len(events))
	}
	if events[0].Identity != result.Identity {
		t.Fatalf("event identity mismatch: %s", events[0].Identity)
	}

	stored := f.store.contacts[result.Identity]
	if stored == nil || stored.Status != domain.StatusQualified {
		t.Fatalf("contact not persisted as qualified: %+v", stored)
	}

	// Both conversation sides logged, inbound first.
	if len(f.store.messages) != 2 || f.store.botFlags[0] || !f.store.botFlags[1] {
		t.Fatalf("expected inbound+bot messages, got %v / %v", f.store.messages, f.store.botFlags)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected one outbound send, got %d", len(f.sender.sent))
	}
}

func TestProcessMessageQualifiedHoldsWithoutRenotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.ProcessMessage(ctx, "11987654321", "preciso do laudo BPC"); err != nil {
		t.Fatalf("first message: %v", err)
	}

	result, err := f.service.ProcessMessage(ctx, "11987654321", "quero saber sobre outro assunto")
	if err != nil {
		t.Fatalf("second message: %v", err)
	}
	if result.Status != domain.StatusQualified {
		t.Fatalf("qualified contact must hold on a modest signal, got %s", result.Status)
	}
	if result.Notified {
		t.Fatal("confirming qualification must not renotify")
	}
	if got := len(f.bus.qualifiedEvents()); got != 1 {
		t.Fatalf("expected exactly one qualified event, got %d", got)
	}
}

func TestProcessMessageNeedAndTemporalTermsReachWarm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.contacts["11987654321"] = &domain.Contact{
		Identity: "11987654321",
		Status:   domain.StatusCold,
		Score:    55,
	}

	// No product or professional term, only need plus temporal pressure.
	result, err := f.service.ProcessMessage(ctx, "11987654321", "necessito disso para amanhã")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Status != domain.StatusWarm {
		t.Fatalf("need and temporal terms must satisfy the warm gate, got %s", result.Status)
	}
}

func TestProcessMessageGreetingStaysCold(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.ProcessMessage(context.Background(), "11987654321", "oi")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Status != domain.StatusCold {
		t.Fatalf("expected cold, got %s", result.Status)
	}
	if result.Score != 10 {
		t.Fatalf("bootstrap greeting clamps to 10, got %d", result.Score)
	}
	if result.Notified {
		t.Fatal("cold transition must not notify")
	}
}

func TestProcessMessageShortLowSignalDecays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.contacts["11987654321"] = &domain.Contact{
		Identity: "11987654321",
		Status:   domain.StatusCold,
		Score:    40,
	}

	result, err := f.service.ProcessMessage(ctx, "11987654321", "ok?")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Score != 36 {
		t.Fatalf("expected limited decay to 36, got %d", result.Score)
	}
	if result.Status != domain.StatusCold {
		t.Fatalf("expected cold, got %s", result.Status)
	}
}

func TestProcessMessageRejectsEmptyIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ProcessMessage(context.Background(), "---", "preciso do laudo")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.store.contacts) != 0 {
		t.Fatal("invalid identity must never touch the store")
	}
}

func TestProcessMessageStoreUnavailableIsFatal(t *testing.T) {
	f := newFixture(t)
	f.store.failGet = true

	_, err := f.service.ProcessMessage(context.Background(), "11987654321", "preciso do laudo")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestProcessMessageNoPartialWriteOnUpsertFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failUpsert = true

	_, err := f.service.ProcessMessage(context.Background(), "11987654321", "preciso do laudo BPC")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if len(f.store.messages) != 0 || len(f.store.logActions) != 0 {
		t.Fatal("failed persistence must not leave partial log entries")
	}
	if len(f.sender.sent) != 0 {
		t.Fatal("failed persistence must not send a reply")
	}
}

func TestProcessMessageSendFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("provider 500")

	result, err := f.service.ProcessMessage(context.Background(), "11987654321", "preciso do laudo BPC")
	if err != nil {
		t.Fatalf("send failure must not fail the pipeline: %v", err)
	}
	// Bot response is logged regardless of delivery outcome.
	if len(f.store.messages) != 2 {
		t.Fatalf("expected both messages logged, got %d", len(f.store.messages))
	}
	if result.Response == "" {
		t.Fatal("expected a response")
	}
}

func TestRegisterLeadPreservesExistingFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.RegisterLead(ctx, RegisterParams{Phone: "11987654321", Name: "Dra. Ana", Source: "site"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Status != domain.StatusNew || first.Score != 0 {
		t.Fatalf("bootstrap contact must be new/0, got %s/%d", first.Status, first.Score)
	}

	// Re-registration without a name keeps the existing one.
	second, err := f.service.RegisterLead(ctx, RegisterParams{Phone: "+55 11 98765-4321"})
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if second.Name != "Dra. Ana" {
		t.Fatalf("expected preserved name, got %q", second.Name)
	}
	// The welcome fires on creation only, not on the refresh.
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected exactly one welcome send, got %d", len(f.sender.sent))
	}
}

func TestRegisterLeadWelcomesNewContact(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.RegisterLead(context.Background(), RegisterParams{Phone: "11987654321", Source: "site"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(f.sender.sent) != 1 || f.sender.sent[0] != welcomeMessage {
		t.Fatalf("expected the welcome message to be sent, got %v", f.sender.sent)
	}
	if len(f.store.messages) != 1 || !f.store.botFlags[0] {
		t.Fatalf("expected the welcome logged as a bot message, got %v/%v", f.store.messages, f.store.botFlags)
	}
	if len(f.store.logActions) != 1 || f.store.logActions[0] != "new_lead" {
		t.Fatalf("expected a new_lead automation entry, got %v", f.store.logActions)
	}

	var registered int
	for _, e := range f.bus.published {
		if _, ok := e.(events.LeadRegistered); ok {
			registered++
		}
	}
	if registered != 1 {
		t.Fatalf("expected one registration event, got %d", registered)
	}
}

func TestRegisterLeadRejectsInvalidPhone(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.RegisterLead(context.Background(), RegisterParams{Phone: "abc"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
