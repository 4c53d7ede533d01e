// Package progress holds the shared status record of the current scrape run.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/models"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusError     Status = "error"
)

// Active reports whether a run in this state still owns the worker.
func (s Status) Active() bool {
	return s == StatusStarting || s == StatusRunning
}

// Terminal reports whether the run has ended.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusError
}

// Snapshot is a point-in-time copy of the progress record.
type Snapshot struct {
	RunID            string                 `json:"run_id"`
	Status           Status                 `json:"status"`
	Query            string                 `json:"query"`
	Current          int                    `json:"current"`
	Total            int                    `json:"total"`
	Message          string                 `json:"message"`
	Percentage       int                    `json:"percentage"`
	DownloadedImages []models.AcceptedImage `json:"downloaded_images"`
	Error            *string                `json:"error"`
	StartedAt        *time.Time             `json:"started_at,omitempty"`
	FinishedAt       *time.Time             `json:"finished_at,omitempty"`
}

// Percentage is floor(current/total*100), or 0 when total is not positive.
func Percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	p := current * 100 / total
	if p > 100 {
		return 100
	}
	return p
}

// Store is the mutex-guarded progress record. Exactly one run at a time may
// hold it in an active state.
type Store struct {
	mu          sync.RWMutex
	snap        Snapshot
	subscribers map[int]chan Snapshot
	nextID      int
	now         func() time.Time
}

// NewStore creates an idle store.
func NewStore() *Store {
	return &Store{
		snap: Snapshot{
			Status:           StatusIdle,
			DownloadedImages: []models.AcceptedImage{},
		},
		subscribers: make(map[int]chan Snapshot),
		now:         time.Now,
	}
}

// Begin re-initialises the record for req and returns the new run id.
// It fails with errors.ErrBusy while another run is active; the check and the
// reset happen in one critical section.
func (s *Store) Begin(req models.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Status.Active() {
		return "", errors.ErrBusy
	}

	started := s.now()
	s.snap = Snapshot{
		RunID:            uuid.NewString(),
		Status:           StatusStarting,
		Query:            req.Query,
		Total:            req.TargetCount,
		Message:          "Starting scraper...",
		DownloadedImages: []models.AcceptedImage{},
		StartedAt:        &started,
	}
	s.publishLocked()
	return s.snap.RunID, nil
}

// SetStatus changes only the status field.
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = status
	s.publishLocked()
}

// Report overwrites the counters, message and error; a nil err clears any
// previous error.
func (s *Store) Report(current, total int, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Current = current
	s.snap.Total = total
	s.snap.Message = message
	s.snap.Percentage = Percentage(current, total)
	s.snap.Error = errorText(err)
	s.publishLocked()
}

// Accept appends img and sets current to the number of accepted images, so
// the two can never disagree.
func (s *Store) Accept(img models.AcceptedImage, total int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.DownloadedImages = append(s.snap.DownloadedImages, img)
	s.snap.Current = len(s.snap.DownloadedImages)
	s.snap.Total = total
	s.snap.Message = message
	s.snap.Percentage = Percentage(s.snap.Current, total)
	s.snap.Error = nil
	s.publishLocked()
}

// Finish moves the run into a terminal state.
func (s *Store) Finish(status Status, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	finished := s.now()
	s.snap.Status = status
	s.snap.Message = message
	s.snap.Error = errorText(err)
	s.snap.FinishedAt = &finished
	s.publishLocked()
}

// Read returns a deep copy of the current record.
func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe returns a channel receiving a snapshot after every change and a
// cancel func. Slow readers only ever miss intermediate snapshots: the
// channel always holds the most recent one.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subscribers[id] = ch
	ch <- s.copyLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// copyLocked copies the record. Pointer fields are shared: they are always
// replaced, never written through.
func (s *Store) copyLocked() Snapshot {
	out := s.snap
	out.DownloadedImages = make([]models.AcceptedImage, 0, len(s.snap.DownloadedImages))
	if err := copier.CopyWithOption(&out.DownloadedImages, &s.snap.DownloadedImages, copier.Option{DeepCopy: true}); err != nil {
		out.DownloadedImages = append(out.DownloadedImages[:0], s.snap.DownloadedImages...)
	}
	return out
}

func (s *Store) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.copyLocked()
	for _, ch := range s.subscribers {
		deliverLatest(ch, snap)
	}
}

// deliverLatest replaces any unread snapshot in ch with snap.
func deliverLatest(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	text := errors.Reason(err)
	return &text
}
