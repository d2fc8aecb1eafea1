package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookSender(t *testing.T) {
	var (
		got  Message
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, "hook-token")
	msg := Message{Event: EventLorrySubmitted, To: []string{"admin@example.com"}, Subject: "Lorry AB-1234 submitted"}
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Event != msg.Event || got.Subject != msg.Subject || len(got.To) != 1 {
		t.Errorf("received %+v", got)
	}
	if auth != "Bearer hook-token" {
		t.Errorf("authorization = %q", auth)
	}
}

func TestWebhookSenderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL, "").Send(context.Background(), Message{Event: EventUserApproved})
	if err == nil {
		t.Fatal("expected an error for a 502 response")
	}

	// the notification service swallows sender failures
	NewNotificationService(NewWebhookSender(srv.URL, "")).send(context.Background(), Message{Event: EventUserApproved})
}
