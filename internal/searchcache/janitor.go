package searchcache

import "time"

// runJanitor sweeps expired entries on a fixed interval so that entries
// written once and never read again are still reclaimed. Lazy expiration in
// Get alone would leave those pinned until eviction pressure removed them.
func (s *MemoryStore) runJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.janitorStop:
			return
		}
	}
}

// sweep removes every entry whose TTL has passed. Candidates are collected
// under the read lock, then each expiry is re-checked under the write lock
// before deletion so a concurrent Set that refreshed the key after the
// snapshot is never clobbered.
func (s *MemoryStore) sweep() {
	now := time.Now()

	s.mu.RLock()
	expired := make([]string, 0)
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, key)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	for _, key := range expired {
		if e, ok := s.entries[key]; ok && now.After(e.expiresAt) {
			s.removeLocked(e)
		}
	}
	s.mu.Unlock()
}
