package handlers

import (
	"net/http"
	"sync"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type healthResponse struct {
	Status   string        `json:"status"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// NewStartupStatus creates a status with the named steps outstanding.
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = (completed * 100) / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Health reports liveness. It answers 503 until the server is ready.
func (s *StartupStatus) Health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := healthResponse{
		Status:   "starting",
		Current:  s.current,
		Progress: s.progress,
		Steps:    append([]StartupStep(nil), s.steps...),
	}
	ready := s.ready
	s.mu.RUnlock()

	if !ready {
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Status = "ok"
	respondJSON(w, http.StatusOK, resp)
}

// RequireReady answers 503 for API requests until the server is ready
func (s *StartupStatus) RequireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.IsReady() {
			w.Header().Set("Retry-After", "5")
			respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: ErrServiceStarting})
			return
		}
		next.ServeHTTP(w, r)
	})
}
