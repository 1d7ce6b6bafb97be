package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"previdas_backend/internal/scheduler"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/validator"
)

type recordingEnqueuer struct {
	messages      []scheduler.MessageReceivedPayload
	registrations []scheduler.LeadRegisteredPayload
}

func (r *recordingEnqueuer) EnqueueMessageReceived(_ context.Context, p scheduler.MessageReceivedPayload) error {
	r.messages = append(r.messages, p)
	return nil
}

func (r *recordingEnqueuer) EnqueueLeadRegistered(_ context.Context, p scheduler.LeadRegisteredPayload) error {
	r.registrations = append(r.registrations, p)
	return nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook/whatsapp", h.HandleInboundMessage)
	r.POST("/webhook/register", h.HandleRegistration)
	return r
}

func TestHandleInboundMessage_Queued(t *testing.T) {
	enq := &recordingEnqueuer{}
	h := NewHandler(enq, nil, validator.New(), logger.New("test"))
	router := newTestRouter(h)

	body := `{"from": "5511999998888", "pushName": "Maria", "text": {"body": "preciso do laudo para BPC"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusAccepted, w.Body.String())
	}
	if len(enq.messages) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(enq.messages))
	}
	got := enq.messages[0]
	if got.Phone != "5511999998888" || got.Text != "preciso do laudo para BPC" || got.Name != "Maria" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestHandleInboundMessage_RejectsEmptyBody(t *testing.T) {
	enq := &recordingEnqueuer{}
	h := NewHandler(enq, nil, validator.New(), logger.New("test"))
	router := newTestRouter(h)

	cases := []string{
		`{"from": "", "text": {"body": "oi"}}`,
		`{"from": "5511999998888", "text": {"body": ""}}`,
		`{"from": "5511999998888"}`,
		`not json`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
	if len(enq.messages) != 0 {
		t.Fatalf("invalid payloads must not be enqueued, got %d", len(enq.messages))
	}
}

func TestHandleRegistration_Queued(t *testing.T) {
	enq := &recordingEnqueuer{}
	h := NewHandler(enq, nil, validator.New(), logger.New("test"))
	router := newTestRouter(h)

	body := `{"phone": "5511988887777", "name": "Carlos", "source": "site"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if len(enq.registrations) != 1 {
		t.Fatalf("enqueued %d registrations, want 1", len(enq.registrations))
	}
	if enq.registrations[0].Source != "site" {
		t.Fatalf("source = %q, want site", enq.registrations[0].Source)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["status"] != "queued" {
		t.Fatalf("status field = %v, want queued", resp["status"])
	}
}

func TestGenerateAPIKey(t *testing.T) {
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if !strings.HasPrefix(plaintext, "pvk_") {
		t.Fatalf("plaintext %q missing pvk_ prefix", plaintext)
	}
	if prefix != plaintext[:12] {
		t.Fatalf("prefix %q does not match plaintext head", prefix)
	}
	if HashKey(plaintext) != hash {
		t.Fatal("HashKey disagrees with generated hash")
	}

	other, _, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if other == plaintext {
		t.Fatal("two generated keys collided")
	}
}
