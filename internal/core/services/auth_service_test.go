package services

import (
	"testing"

	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/jwt"
)

func newAuth(e *env) *AuthService {
	signer := jwt.NewSigner("access-secret", "refresh-secret", 15, 7)
	return NewAuthService(e.store, signer, NewNotificationService(e.sent))
}

func TestRegisterApproveLogin(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	_, appAdmin := e.user(nil, domain.RoleApplicationAdmin, domain.UserStatusApproved, "root@example.com")

	registered, err := auth.Register(e.ctx, &RegisterInput{
		OrganizationName: "Green Valley",
		Name:             "Anan",
		Email:            "Anan@Example.com",
		Password:         "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.Status != domain.UserStatusPending || registered.Role != domain.RoleFarmAdmin {
		t.Errorf("registered = %s/%s, expected PENDING FARM_ADMIN", registered.Status, registered.Role)
	}
	if registered.Email != "anan@example.com" {
		t.Errorf("email = %q, expected normalized", registered.Email)
	}
	if msg := e.sent.last(); msg.Event != EventRegistrationPending || len(msg.To) != 1 || msg.To[0] != "root@example.com" {
		t.Errorf("notification = %+v", msg)
	}

	_, err = auth.Register(e.ctx, &RegisterInput{
		OrganizationName: "Copy",
		Name:             "Anan",
		Email:            "anan@example.com",
		Password:         "correct-horse",
	})
	expectErr(t, err, ErrEmailAlreadyExists)

	login := &LoginInput{Email: "anan@example.com", Password: "correct-horse"}
	_, err = auth.Login(e.ctx, login)
	expectErr(t, err, ErrAccountPending)

	if _, err := e.users.Approve(e.ctx, appAdmin, registered.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if e.sent.last().Event != EventUserApproved {
		t.Errorf("event = %q, expected %q", e.sent.last().Event, EventUserApproved)
	}

	_, err = e.users.Approve(e.ctx, appAdmin, registered.ID)
	expectErr(t, err, ErrUserNotPending)

	resp, err := auth.Login(e.ctx, login)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	claims, err := auth.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.Role != domain.RoleFarmAdmin || claims.OrganizationID == 0 {
		t.Errorf("claims = %+v", claims)
	}

	_, err = auth.Login(e.ctx, &LoginInput{Email: "anan@example.com", Password: "wrong-password"})
	expectErr(t, err, ErrInvalidCredentials)
	_, err = auth.Login(e.ctx, &LoginInput{Email: "nobody@example.com", Password: "whatever"})
	expectErr(t, err, ErrInvalidCredentials)
}

func TestRejectBlocksLogin(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	_, appAdmin := e.user(nil, domain.RoleApplicationAdmin, domain.UserStatusApproved, "root@example.com")
	f := e.farm("Alpha")

	pending, _ := e.user(f.org, domain.RoleFarmAdmin, domain.UserStatusPending, "late@example.com")

	_, err := e.users.Approve(e.ctx, f.admin, pending.ID)
	expectKind(t, err, domain.KindPermission)

	rejected, err := e.users.Reject(e.ctx, appAdmin, pending.ID, &RejectUserInput{Reason: "  duplicate farm "})
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.RejectionReason != "duplicate farm" {
		t.Errorf("reason = %q", rejected.RejectionReason)
	}
	if e.sent.last().Event != EventUserRejected {
		t.Errorf("event = %q, expected %q", e.sent.last().Event, EventUserRejected)
	}

	_, err = auth.Login(e.ctx, &LoginInput{Email: "late@example.com", Password: "secret-pass"})
	expectErr(t, err, ErrAccountRejected)
}

func TestRefreshTokenRotation(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	e.farm("Alpha")

	first, err := auth.Login(e.ctx, &LoginInput{Email: "alpha-fm@example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	second, err := auth.RefreshToken(e.ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// replaying the rotated token revokes every session
	_, err = auth.RefreshToken(e.ctx, first.RefreshToken)
	expectErr(t, err, ErrTokenRevoked)

	_, err = auth.RefreshToken(e.ctx, second.RefreshToken)
	expectErr(t, err, ErrTokenRevoked)

	_, err = auth.RefreshToken(e.ctx, "not-a-token")
	expectErr(t, err, ErrInvalidToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	e.farm("Alpha")

	resp, err := auth.Login(e.ctx, &LoginInput{Email: "alpha-admin@example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := auth.Logout(e.ctx, resp.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = auth.RefreshToken(e.ctx, resp.RefreshToken)
	expectErr(t, err, ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	f := e.farm("Alpha")

	session, err := auth.Login(e.ctx, &LoginInput{Email: "alpha-fm@example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	err = e.users.ChangePassword(e.ctx, f.fm, &ChangePasswordInput{OldPassword: "wrong-pass", NewPassword: "brand-new-pass"})
	expectErr(t, err, ErrOldPasswordWrong)

	if err := e.users.ChangePassword(e.ctx, f.fm, &ChangePasswordInput{OldPassword: "secret-pass", NewPassword: "brand-new-pass"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	_, err = auth.RefreshToken(e.ctx, session.RefreshToken)
	expectErr(t, err, ErrTokenRevoked)

	_, err = auth.Login(e.ctx, &LoginInput{Email: "alpha-fm@example.com", Password: "secret-pass"})
	expectErr(t, err, ErrInvalidCredentials)
	if _, err := auth.Login(e.ctx, &LoginInput{Email: "alpha-fm@example.com", Password: "brand-new-pass"}); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(e)
	f := e.farm("Alpha")

	me, err := auth.Me(e.ctx, f.fm)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.OrganizationName != "Alpha" || me.Role != domain.RoleFieldManager {
		t.Errorf("me = %+v", me)
	}
}
