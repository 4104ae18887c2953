package app

import "sync"

// seedStatus remembers the last outcome of each seeder for /readyz.
type seedStatus struct {
	mu      sync.RWMutex
	results map[string]string
}

func newSeedStatus() *seedStatus {
	return &seedStatus{results: map[string]string{}}
}

func (s *seedStatus) record(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.results[name] = "failed: " + err.Error()
		return
	}
	s.results[name] = "ok"
}

func (s *seedStatus) snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}
