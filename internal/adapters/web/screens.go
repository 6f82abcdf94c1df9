package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"garage-portal/internal/app"
)

// screenTTL is how long an untouched receiving screen, including any pending
// extra-quantity confirmation, is kept.
const screenTTL = 15 * time.Minute

// screenStore is a thread-safe in-memory store of receiving screens keyed by
// operator and order, with TTL expiry.
type screenStore struct {
	mu      sync.Mutex
	screens map[string]*app.ReceivingScreen
	now     func() time.Time
}

func newScreenStore() *screenStore {
	return &screenStore{screens: make(map[string]*app.ReceivingScreen), now: time.Now}
}

func screenKey(subject string, orderID int) string {
	return fmt.Sprintf("%s/%d", subject, orderID)
}

func (s *screenStore) put(subject string, sc *app.ReceivingScreen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens[screenKey(subject, sc.OrderID())] = sc
}

func (s *screenStore) get(subject string, orderID int) (*app.ReceivingScreen, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := screenKey(subject, orderID)
	sc, ok := s.screens[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sc.LastUsed()) > screenTTL {
		delete(s.screens, key)
		return nil, false
	}
	return sc, true
}

func (s *screenStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sc := range s.screens {
		if s.now().Sub(sc.LastUsed()) > screenTTL {
			delete(s.screens, key)
		}
	}
}

// startPurge starts a background goroutine that evicts expired entries every 5 minutes.
func (s *screenStore) startPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purge()
			}
		}
	}()
}
