package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/whisperburn/internal/pipeline"
)

const progressBuffer = 32

var (
	errSessionNotFound = errors.New("session not found")
	errSessionBusy     = errors.New("session is busy with another job")
)

// ProgressEvent is streamed to the browser over SSE.
type ProgressEvent struct {
	Stage    string  `json:"stage"`
	Fraction float64 `json:"fraction"`
	Status   string  `json:"status"`
}

type session struct {
	id      string
	created time.Time
	events  chan ProgressEvent

	mu     sync.Mutex
	busy   bool
	gen    *pipeline.Generation
	output string
}

// publish never blocks; updates are dropped when nobody is listening.
func (s *session) publish(ev ProgressEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *session) progress(stage string) pipeline.Progress {
	return func(fraction float64, status string) {
		s.publish(ProgressEvent{Stage: stage, Fraction: fraction, Status: status})
	}
}

// acquire marks the session busy; callers must release.
func (s *session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return errSessionBusy
	}
	s.busy = true
	return nil
}

func (s *session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *session) generation() *pipeline.Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *session) setGeneration(gen *pipeline.Generation) {
	s.mu.Lock()
	s.gen = gen
	s.mu.Unlock()
}

// replaceGeneration starts over with a fresh clip; the burned output of the
// previous clip no longer belongs to the session.
func (s *session) replaceGeneration(gen *pipeline.Generation) {
	s.mu.Lock()
	s.gen = gen
	s.output = ""
	s.mu.Unlock()
}

func (s *session) finalOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *session) setOutput(path string) {
	s.mu.Lock()
	s.output = path
	s.mu.Unlock()
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) create() *session {
	s := &session{
		id:      uuid.NewString(),
		created: time.Now(),
		events:  make(chan ProgressEvent, progressBuffer),
	}
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return s, nil
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
