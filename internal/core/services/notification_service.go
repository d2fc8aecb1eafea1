package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"corntrack/internal/adapters/persistence/models"
)

// Notification events
const (
	EventRegistrationPending = "registration.pending"
	EventUserApproved        = "user.approved"
	EventUserRejected        = "user.rejected"
	EventInvitation          = "invitation.sent"
	EventLorrySubmitted      = "lorry.submitted"
	EventLorrySentToDealer   = "lorry.sent_to_dealer"
)

// WebhookSender posts messages as JSON to a webhook
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookSender creates a new webhook sender
func NewWebhookSender(url, token string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to the webhook
func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// LogSender writes messages to the process log
type LogSender struct{}

// Send logs msg
func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("📨 [%s] to=%s %s: %s", msg.Event, strings.Join(msg.To, ","), msg.Subject, msg.Body)
	return nil
}

// NotificationService renders and sends templated messages. Failures are
// logged and never returned to the caller.
type NotificationService struct {
	sender Sender
}

// NewNotificationService creates a new notification service
func NewNotificationService(sender Sender) *NotificationService {
	if sender == nil {
		sender = LogSender{}
	}
	return &NotificationService{sender: sender}
}

func (s *NotificationService) send(ctx context.Context, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := s.sender.Send(ctx, msg); err != nil {
		log.Printf("⚠️ Notification %s failed: %v", msg.Event, err)
	}
}

// NotifyRegistrationPending tells application admins a farm is waiting for approval
func (s *NotificationService) NotifyRegistrationPending(ctx context.Context, org *models.Organization, user *models.User, adminEmails []string) {
	s.send(ctx, Message{
		Event:   EventRegistrationPending,
		To:      adminEmails,
		Subject: "New farm registration awaiting approval",
		Body: fmt.Sprintf("Organization: %s\nFarm admin: %s <%s>\nUser ID: #%d",
			org.Name, user.Name, user.Email, user.ID),
	})
}

// NotifyUserApproved tells a user they can log in
func (s *NotificationService) NotifyUserApproved(ctx context.Context, user *models.User) {
	s.send(ctx, Message{
		Event:   EventUserApproved,
		To:      []string{user.Email},
		Subject: "Your account has been approved",
		Body:    fmt.Sprintf("Hello %s, your account is approved. You can now log in.", user.Name),
	})
}

// NotifyUserRejected tells a user the registration was rejected
func (s *NotificationService) NotifyUserRejected(ctx context.Context, user *models.User, reason string) {
	body := fmt.Sprintf("Hello %s, your registration was rejected.", user.Name)
	if reason != "" {
		body += "\nReason: " + reason
	}
	s.send(ctx, Message{
		Event:   EventUserRejected,
		To:      []string{user.Email},
		Subject: "Your registration was rejected",
		Body:    body,
	})
}

// NotifyInvitation sends the invitation token to the invitee
func (s *NotificationService) NotifyInvitation(ctx context.Context, inv *models.Invitation, orgName, token string) {
	s.send(ctx, Message{
		Event:   EventInvitation,
		To:      []string{inv.Email},
		Subject: fmt.Sprintf("You are invited to join %s", orgName),
		Body: fmt.Sprintf("You have been invited to %s as %s.\nInvitation token: %s\nExpires: %s",
			orgName, inv.Role, token, inv.ExpiresAt.Format(time.RFC1123)),
	})
}

// NotifyLorrySubmitted tells farm admins a lorry is ready for review
func (s *NotificationService) NotifyLorrySubmitted(ctx context.Context, lorry *models.Lorry, deliveries int, adminEmails []string) {
	s.send(ctx, Message{
		Event:   EventLorrySubmitted,
		To:      adminEmails,
		Subject: fmt.Sprintf("Lorry %s submitted", lorry.PlateNumber),
		Body:    fmt.Sprintf("Lorry %s (#%d) was submitted with %d deliveries.", lorry.PlateNumber, lorry.ID, deliveries),
	})
}

// NotifyLorrySentToDealer tells the assigned field manager the run is closed
func (s *NotificationService) NotifyLorrySentToDealer(ctx context.Context, lorry *models.Lorry, recipients []string) {
	dealer := lorry.DealerName
	if dealer == "" {
		dealer = "dealer"
	}
	s.send(ctx, Message{
		Event:   EventLorrySentToDealer,
		To:      recipients,
		Subject: fmt.Sprintf("Lorry %s sent to %s", lorry.PlateNumber, dealer),
		Body:    fmt.Sprintf("Lorry %s (#%d) was handed to %s.", lorry.PlateNumber, lorry.ID, dealer),
	})
}
