package live

import "sync"

// Selection is the state of one client's two match selectors.
type Selection struct {
	mu   sync.Mutex
	a, b string
}

func (s *Selection) Set(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a, s.b = a, b
}

func (s *Selection) Get() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a, s.b
}

func (s *Selection) Reset() {
	s.Set("", "")
}

// Reconcile keeps each selected id only if it is still offered by v.
func (s *Selection) Reconcile(v View) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a = keepIfPresent(s.a, v.Options)
	s.b = keepIfPresent(s.b, v.Options)
	return s.a, s.b
}

func keepIfPresent(id string, options []Option) string {
	if id == "" {
		return ""
	}
	for _, o := range options {
		if o.ID == id {
			return id
		}
	}
	return ""
}
