package dispatcher_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/payflow/internal/webhook/dispatcher"
	"github.com/smallbiznis/payflow/internal/webhook/domain"
)

func dueEvent(url string) domain.DueEvent {
	return domain.DueEvent{
		Event: domain.Event{
			ID:        domain.NewEventID(time.Now()),
			EventType: domain.EventTypePaymentCreated,
			Payload:   []byte(`{"event":"payment.created"}`),
		},
		WebhookURL:    url,
		WebhookSecret: "whsec_test",
	}
}

func TestHTTPSenderSignsAndPosts(t *testing.T) {
	var (
		gotBody      []byte
		gotSignature string
		gotEventID   string
		gotContent   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get(domain.HeaderSignature)
		gotEventID = r.Header.Get(domain.HeaderEventID)
		gotContent = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := dispatcher.NewHTTPSender(5 * time.Second)
	event := dueEvent(srv.URL)

	if err := sender.Send(context.Background(), event); err != nil {
		t.Fatalf("send: %v", err)
	}
	if string(gotBody) != string(event.Payload) {
		t.Fatalf("expected body %s, got %s", event.Payload, gotBody)
	}
	if gotContent != "application/json" {
		t.Fatalf("expected application/json, got %q", gotContent)
	}
	if gotEventID != event.ID {
		t.Fatalf("expected event id header %s, got %s", event.ID, gotEventID)
	}
	if !domain.VerifySignature(gotBody, gotSignature, "whsec_test") {
		t.Fatalf("signature %s does not verify over received bytes", gotSignature)
	}
}

func TestHTTPSenderNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := dispatcher.NewHTTPSender(5 * time.Second)
	if err := sender.Send(context.Background(), dueEvent(srv.URL)); err == nil {
		t.Fatalf("expected error on 503 response")
	}
}

func TestHTTPSenderUnreachableEndpoint(t *testing.T) {
	sender := dispatcher.NewHTTPSender(time.Second)
	err := sender.Send(context.Background(), dueEvent("http://127.0.0.1:1/hooks"))
	if err == nil {
		t.Fatalf("expected error for unreachable endpoint")
	}
}
