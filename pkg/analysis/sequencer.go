package analysis

import (
	"context"
	"sync"

	"seostrategy-go/pkg/normalizer"
)

// Ticket identifies one request generation.
type Ticket uint64

// Sequencer applies only the newest request's result. Each Begin supersedes
// earlier tickets; a superseded result is dropped on Apply even if it
// arrives last.
type Sequencer struct {
	mu      sync.Mutex
	issued  Ticket
	applied Ticket
	latest  *normalizer.Analysis
	cancel  context.CancelFunc
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Begin issues a new ticket and cancels the context of the previous Run,
// if any.
func (s *Sequencer) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(nil)
}

func (s *Sequencer) begin(cancel context.CancelFunc) Ticket {
	s.issued++
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	return s.issued
}

// BeginContext is Begin plus a child of ctx that is cancelled as soon as a
// later generation begins.
func (s *Sequencer) BeginContext(ctx context.Context) (Ticket, context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(cancel), runCtx, cancel
}

// Current reports whether t is still the newest ticket.
func (s *Sequencer) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.issued
}

// Apply stores a if t is still the newest ticket. It reports whether the
// result was kept.
func (s *Sequencer) Apply(t Ticket, a *normalizer.Analysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.issued || t <= s.applied {
		return false
	}
	s.applied = t
	s.latest = a
	return true
}

// Latest returns the last applied result and its ticket.
func (s *Sequencer) Latest() (*normalizer.Analysis, Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.applied
}

// Run starts a new generation, runs fn with a context that is cancelled as
// soon as another generation begins, and applies the result if it is still
// current. A superseded run returns applied == false.
func (s *Sequencer) Run(ctx context.Context, fn func(context.Context) (*normalizer.Analysis, error)) (a *normalizer.Analysis, applied bool, err error) {
	t, runCtx, cancel := s.BeginContext(ctx)
	defer cancel()

	a, err = fn(runCtx)
	if err != nil {
		return nil, false, err
	}
	return a, s.Apply(t, a), nil
}
