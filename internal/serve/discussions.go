package serve

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mootlabs/moot/internal/consensus"
	"github.com/mootlabs/moot/internal/orchestrator"
)

// DiscussionState is the lifecycle of an API-initiated discussion.
type DiscussionState string

const (
	DiscussionPending   DiscussionState = "pending"
	DiscussionRunning   DiscussionState = "running"
	DiscussionCompleted DiscussionState = "completed"
	DiscussionFailed    DiscussionState = "failed"
)

// DiscussionRecord tracks one discussion through its lifecycle. It is the
// live, lock-guarded object; handlers render DiscussionView snapshots.
type DiscussionRecord struct {
	ID        string
	Request   orchestrator.Request
	StartedAt time.Time

	mu          sync.Mutex
	state       DiscussionState
	result      *consensus.Result
	errMsg      string
	completedAt *time.Time
	events      []consensus.RoundEvent
	subscribers []chan consensus.RoundEvent
	done        bool
}

// DiscussionView is the JSON projection of a record at one point in time.
type DiscussionView struct {
	ID          string               `json:"id"`
	State       DiscussionState      `json:"state"`
	Request     orchestrator.Request `json:"request"`
	Result      *consensus.Result    `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

// snapshot copies the current state under lock for JSON rendering.
func (d *DiscussionRecord) snapshot() DiscussionView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DiscussionView{
		ID:          d.ID,
		State:       d.state,
		Request:     d.Request,
		Result:      d.result,
		Error:       d.errMsg,
		StartedAt:   d.StartedAt,
		CompletedAt: d.completedAt,
	}
}

// publish records a round event and fans it out to subscribers.
func (d *DiscussionRecord) publish(ev consensus.RoundEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	for _, sub := range d.subscribers {
		select {
		case sub <- ev:
		default:
		}
	}
}

// subscribe returns the events so far plus a channel for the rest. The
// returned channel is closed when the discussion finishes.
func (d *DiscussionRecord) subscribe() ([]consensus.RoundEvent, chan consensus.RoundEvent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	backlog := make([]consensus.RoundEvent, len(d.events))
	copy(backlog, d.events)
	if d.done {
		return backlog, nil, true
	}
	ch := make(chan consensus.RoundEvent, 16)
	d.subscribers = append(d.subscribers, ch)
	return backlog, ch, false
}

// finish transitions the record to its terminal state and closes
// subscriber channels.
func (d *DiscussionRecord) finish(state DiscussionState, result *consensus.Result, errMsg string) {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
	d.result = result
	d.errMsg = errMsg
	d.completedAt = &now
	d.done = true
	for _, sub := range d.subscribers {
		close(sub)
	}
	d.subscribers = nil
}

// DiscussionStore is the in-memory record index, insertion-ordered.
type DiscussionStore struct {
	mu      sync.RWMutex
	records map[string]*DiscussionRecord
	order   []string
}

// NewDiscussionStore creates an empty store.
func NewDiscussionStore() *DiscussionStore {
	return &DiscussionStore{records: make(map[string]*DiscussionRecord)}
}

// Add indexes a record.
func (s *DiscussionStore) Add(rec *DiscussionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
}

// Get returns the record for id.
func (s *DiscussionStore) Get(id string) (*DiscussionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// List returns snapshots of all records, newest first.
func (s *DiscussionStore) List() []DiscussionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DiscussionView, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.records[s.order[i]].snapshot())
	}
	return out
}

func (s *Server) handleCreateDiscussion(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "decoding request body: %v", err)
		return
	}
	s.applyDefaults(&req)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "%v", err)
		return
	}

	req.SessionID = newDiscussionID()
	rec := &DiscussionRecord{
		ID:        req.SessionID,
		Request:   req,
		StartedAt: time.Now(),
		state:     DiscussionPending,
	}
	s.discussions.Add(rec)

	go s.runDiscussion(rec)

	writeJSON(w, http.StatusAccepted, rec.snapshot())
}

// runDiscussion executes one discussion in the background, forwarding round
// events to the record and persisting the result when a store is configured.
func (s *Server) runDiscussion(rec *DiscussionRecord) {
	rec.mu.Lock()
	rec.state = DiscussionRunning
	rec.mu.Unlock()

	events := make(chan consensus.RoundEvent, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			rec.publish(ev)
		}
	}()

	orch := orchestrator.New(s.registry, s.producer,
		orchestrator.WithLogger(s.logger),
		orchestrator.WithEvents(events))
	result, err := orch.RunDiscussion(context.Background(), rec.Request)
	close(events)
	wg.Wait()

	if err != nil {
		s.logger.Error("discussion failed", "id", rec.ID, "error", err)
		rec.finish(DiscussionFailed, nil, err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.SaveResult(result); err != nil {
			s.logger.Warn("persisting discussion failed", "id", rec.ID, "error", err)
		}
	}
	rec.finish(DiscussionCompleted, result, "")
}

func (s *Server) handleListDiscussions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"discussions": s.discussions.List()})
}

func (s *Server) handleGetDiscussion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.discussions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeDiscussionNotFound, "no discussion with id %q", id)
		return
	}
	writeJSON(w, http.StatusOK, rec.snapshot())
}

// applyDefaults fills unset request fields from the server defaults.
func (s *Server) applyDefaults(req *orchestrator.Request) {
	if req.Protocol == "" {
		req.Protocol = s.defaults.Protocol
	}
	if req.MaxRounds == 0 {
		req.MaxRounds = s.defaults.MaxRounds
	}
	if req.ConsensusThreshold == 0 {
		req.ConsensusThreshold = s.defaults.ConsensusThreshold
	}
	if req.QualityThreshold == 0 {
		req.QualityThreshold = s.defaults.QualityThreshold
	}
	if req.MinResponseLength == 0 {
		req.MinResponseLength = s.defaults.MinResponseLength
	}
}

func newDiscussionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "disc-" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))
	}
	return "disc-" + hex.EncodeToString(buf)
}
