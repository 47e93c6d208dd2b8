// Package scheduler drives periodic occurrence resolution for every known
// user so that each day's planned dose logs exist before any client asks
// for them.
package scheduler

import (
	"context"
	"log"
	"time"

	"medtrack/internal/resolver"
	"medtrack/internal/storage"
)

type Scheduler struct {
	users         storage.UserStore
	generator     *resolver.Generator
	checkInterval time.Duration
	notifyCh      chan struct{}
}

func New(users storage.UserStore, generator *resolver.Generator, checkInterval time.Duration) *Scheduler {
	if checkInterval <= 0 {
		checkInterval = 15 * time.Minute
	}
	return &Scheduler{
		users:         users,
		generator:     generator,
		checkInterval: checkInterval,
		notifyCh:      make(chan struct{}, 1),
	}
}

// Notify triggers an immediate check, e.g. when a client session begins.
// Non-blocking if a check is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
		// Channel already has a pending notification, skip
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	log.Println("Scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Wait a bit for migrations to complete before first check
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	s.check(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped")
			return
		case <-ticker.C:
			s.check(ctx)
		case <-s.notifyCh:
			log.Println("Scheduler triggered by notification")
			s.check(ctx)
		}
	}
}

// check regenerates due occurrences for every user. Generation is
// idempotent, so overlapping or repeated checks are harmless.
func (s *Scheduler) check(ctx context.Context) {
	uids, err := s.users.ListUIDs(ctx)
	if err != nil {
		log.Printf("Failed to list users: %v", err)
		return
	}

	now := time.Now()
	for _, uid := range uids {
		if err := s.generator.GenerateDueOccurrences(ctx, uid, now); err != nil {
			log.Printf("Failed to generate occurrences for %s: %v", uid, err)
		}
	}
}
