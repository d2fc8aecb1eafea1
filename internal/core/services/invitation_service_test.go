package services

import (
	"strings"
	"testing"
	"time"

	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/password"
)

func TestInviteAndAccept(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	invitations := NewInvitationService(e.store, NewNotificationService(e.sent), 0)

	result, err := invitations.Invite(e.ctx, f.admin, &InviteInput{Email: "New.FM@example.com", Role: domain.RoleFieldManager})
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if result.Token == "" || result.Invitation.Token == result.Token {
		t.Fatal("invitation must store only the token hash")
	}
	if result.Invitation.Token != password.HashToken(result.Token) {
		t.Error("stored token is not the hash of the issued token")
	}
	msg := e.sent.last()
	if msg.Event != EventInvitation || !strings.Contains(msg.Body, result.Token) {
		t.Errorf("notification = %+v", msg)
	}

	_, err = invitations.Invite(e.ctx, f.admin, &InviteInput{Email: "new.fm@example.com", Role: domain.RoleFieldManager})
	expectErr(t, err, ErrInvitationPending)

	_, err = invitations.Invite(e.ctx, f.admin, &InviteInput{Email: "alpha-fm@example.com", Role: domain.RoleFieldManager})
	expectErr(t, err, ErrEmailAlreadyExists)

	_, err = invitations.Invite(e.ctx, f.fm, &InviteInput{Email: "other@example.com", Role: domain.RoleFieldManager})
	expectKind(t, err, domain.KindPermission)

	_, err = invitations.Invite(e.ctx, f.admin, &InviteInput{Email: "boss@example.com", Role: domain.RoleApplicationAdmin})
	expectKind(t, err, domain.KindValidation)

	user, err := invitations.Accept(e.ctx, &AcceptInvitationInput{
		Token:    result.Token,
		Name:     "Niran",
		Password: "field-pass-1",
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if user.Status != domain.UserStatusApproved || user.Role != domain.RoleFieldManager {
		t.Errorf("user = %s/%s, expected APPROVED FIELD_MANAGER", user.Status, user.Role)
	}
	if user.OrganizationID == nil || *user.OrganizationID != f.org.ID {
		t.Errorf("user organization = %v, expected %d", user.OrganizationID, f.org.ID)
	}
	if user.Email != "new.fm@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	_, err = invitations.Accept(e.ctx, &AcceptInvitationInput{Token: result.Token, Name: "Again", Password: "field-pass-1"})
	expectErr(t, err, ErrInvitationClosed)

	_, err = invitations.Accept(e.ctx, &AcceptInvitationInput{Token: "unknown", Name: "Nobody", Password: "field-pass-1"})
	expectErr(t, err, ErrInvitationNotFound)
}

func TestInvitationExpiry(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	invitations := NewInvitationService(e.store, nil, time.Hour)

	result, err := invitations.Invite(e.ctx, f.admin, &InviteInput{Email: "late@example.com", Role: domain.RoleFarmAdmin})
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	invitations.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = invitations.Accept(e.ctx, &AcceptInvitationInput{Token: result.Token, Name: "Late", Password: "late-pass-1"})
	expectErr(t, err, ErrInvitationExpired)

	expired, err := invitations.ExpireStale(e.ctx)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, expected 1", expired)
	}

	status := domain.InvitationStatusExpired
	list, err := invitations.List(e.ctx, f.admin, &status)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != result.Invitation.ID {
		t.Errorf("expired list = %v", list)
	}
}

func TestRevokeInvitation(t *testing.T) {
	e := newEnv(t)
	f := e.farm("Alpha")
	other := e.farm("Beta")
	invitations := NewInvitationService(e.store, nil, 0)

	result, err := invitations.Invite(e.ctx, f.admin, &InviteInput{Email: "fm2@example.com", Role: domain.RoleFieldManager})
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	_, err = invitations.Revoke(e.ctx, other.admin, result.Invitation.ID)
	expectKind(t, err, domain.KindNotFound)

	revoked, err := invitations.Revoke(e.ctx, f.admin, result.Invitation.ID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked.Status != domain.InvitationStatusRevoked {
		t.Errorf("status = %s, expected REVOKED", revoked.Status)
	}

	_, err = invitations.Revoke(e.ctx, f.admin, result.Invitation.ID)
	expectErr(t, err, ErrInvitationClosed)

	_, err = invitations.Accept(e.ctx, &AcceptInvitationInput{Token: result.Token, Name: "Too Late", Password: "field-pass-1"})
	expectErr(t, err, ErrInvitationClosed)
}
