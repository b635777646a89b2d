package feed

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/herbal-board/internal/patients"
)

// SyncState is the echo state of one record.
type SyncState int

const (
	// Idle records have no local write in flight.
	Idle SyncState = iota
	// Syncing records have a local write that is not persisted yet.
	Syncing
	// EchoSuppressed records are persisted and wait for their own echo.
	EchoSuppressed
)

func (s SyncState) String() string {
	switch s {
	case Syncing:
		return "syncing"
	case EchoSuppressed:
		return "echo_suppressed"
	default:
		return "idle"
	}
}

// DefaultSuppressTTL bounds how long a write waits for its echo.
const DefaultSuppressTTL = 10 * time.Second

type inflight struct {
	state   SyncState
	patch   patients.Patch
	expires time.Time
	seq     uint64
}

// Suppressor tracks local writes per record so their echoes from the change
// feed can be recognised and dropped. Tokens of one record never affect
// another record.
type Suppressor struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	seq     uint64
	records map[string]map[string]*inflight
}

// NewSuppressor creates a suppressor whose tokens expire after ttl.
func NewSuppressor(ttl time.Duration) *Suppressor {
	if ttl <= 0 {
		ttl = DefaultSuppressTTL
	}
	return &Suppressor{
		ttl:     ttl,
		now:     time.Now,
		records: make(map[string]map[string]*inflight),
	}
}

// Begin registers a local write of patch to record id and moves it to
// Syncing. An empty token is replaced with a fresh one, which is returned.
func (s *Suppressor) Begin(id string, patch patients.Patch, token string) string {
	if token == "" {
		token = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(id)
	tokens := s.records[id]
	if tokens == nil {
		tokens = make(map[string]*inflight)
		s.records[id] = tokens
	}
	s.seq++
	tokens[token] = &inflight{
		state:   Syncing,
		patch:   patch,
		expires: s.now().Add(s.ttl),
		seq:     s.seq,
	}
	return token
}

// Persisted moves the write to EchoSuppressed and restarts its expiry.
func (s *Suppressor) Persisted(id, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.records[id][token]; ok {
		w.state = EchoSuppressed
		w.expires = s.now().Add(s.ttl)
	}
}

// Abort forgets a write that failed to persist.
func (s *Suppressor) Abort(id, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(id, token)
}

// Echo reports whether ev is the echo of a local write. A matching token is
// consumed, so each write suppresses exactly one event.
func (s *Suppressor) Echo(ev Event) bool {
	if ev.Token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(ev.PatientID)
	if _, ok := s.records[ev.PatientID][ev.Token]; !ok {
		return false
	}
	s.forget(ev.PatientID, ev.Token)
	return true
}

// Pending returns the fields of every local write still in flight for id,
// later writes winning, and whether there is any.
func (s *Suppressor) Pending(id string) (patients.Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(id)
	tokens := s.records[id]
	if len(tokens) == 0 {
		return patients.Patch{}, false
	}
	ordered := make([]*inflight, 0, len(tokens))
	for _, w := range tokens {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	var merged patients.Patch
	for _, w := range ordered {
		merged = merged.Merge(w.patch)
	}
	return merged, true
}

// State reports the echo state of record id.
func (s *Suppressor) State(id string) SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(id)
	state := Idle
	for _, w := range s.records[id] {
		if w.state == Syncing {
			return Syncing
		}
		state = EchoSuppressed
	}
	return state
}

func (s *Suppressor) prune(id string) {
	now := s.now()
	for token, w := range s.records[id] {
		if now.After(w.expires) {
			s.forget(id, token)
		}
	}
}

func (s *Suppressor) forget(id, token string) {
	tokens := s.records[id]
	delete(tokens, token)
	if len(tokens) == 0 {
		delete(s.records, id)
	}
}
