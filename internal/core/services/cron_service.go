package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService runs periodic housekeeping jobs
type CronService struct {
	cron        *cron.Cron
	invitations *InvitationService
	auth        *AuthService
	schedule    string
}

// NewCronService creates a new cron service. schedule drives the
// invitation expiry sweep (e.g. "@daily", "0 */6 * * *").
func NewCronService(invitations *InvitationService, auth *AuthService, schedule string) *CronService {
	if schedule == "" {
		schedule = "@daily"
	}
	return &CronService{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		invitations: invitations,
		auth:        auth,
		schedule:    schedule,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.SweepInvitations); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.CleanupRefreshTokens); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ Cron started (invitation sweep: %s)", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("⏰ Cron stopped")
}

// SweepInvitations expires stale invitations
func (s *CronService) SweepInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.invitations.ExpireStale(ctx)
	if err != nil {
		log.Printf("⚠️ Invitation sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("⏰ Expired %d invitations", n)
	}
}

// CleanupRefreshTokens deletes expired refresh tokens
func (s *CronService) CleanupRefreshTokens() {
	if s.auth == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Printf("⚠️ Refresh token cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("⏰ Deleted %d expired refresh tokens", n)
	}
}
