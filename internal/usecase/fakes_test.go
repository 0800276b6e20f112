package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/storage"
	"github.com/fadilmartias/resume-screener/internal/vectorindex"
)

var errStoreDown = errors.New("connection refused")

// memDB is an in-memory stand-in for the three repositories.
type memDB struct {
	mu           sync.Mutex
	jobs         map[uuid.UUID]*model.Job
	candidates   map[uuid.UUID]*model.Candidate
	apps         map[uuid.UUID]*model.Application
	statusLog    map[uuid.UUID][]model.Status
	completes    int
	failComplete bool
}

func newMemDB() *memDB {
	return &memDB{
		jobs:       map[uuid.UUID]*model.Job{},
		candidates: map[uuid.UUID]*model.Candidate{},
		apps:       map[uuid.UUID]*model.Application{},
		statusLog:  map[uuid.UUID][]model.Status{},
	}
}

func (m *memDB) setStatus(a *model.Application, s model.Status) {
	a.Status = s
	a.UpdatedAt = time.Now()
	m.statusLog[a.ID] = append(m.statusLog[a.ID], s)
}

func (m *memDB) CreateJob(_ context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memDB) UpdateJob(_ context.Context, job *model.Job, requirementsChanged bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	var n int64
	if requirementsChanged {
		for _, a := range m.apps {
			if a.JobID == job.ID && a.MatchScore != nil {
				a.ScoreStale = true
				n++
			}
		}
	}
	return n, nil
}

func (m *memDB) FindJobByID(_ context.Context, id uuid.UUID) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memDB) GetJobs(_ context.Context, _, _ int, _ bool) ([]model.Job, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Job
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out, int64(len(out)), nil
}

func (m *memDB) DeleteJob(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.jobs, id)
	for aid, a := range m.apps {
		if a.JobID == id {
			delete(m.apps, aid)
		}
	}
	return nil
}

func (m *memDB) FindCandidateByID(_ context.Context, id uuid.UUID) (*model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memDB) UpdateProfile(_ context.Context, c *model.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.candidates[c.ID] = &cp
	return nil
}

func (m *memDB) UpdateEmbedding(context.Context, uuid.UUID, []float32) error {
	return nil
}

func (m *memDB) CreateWithCandidate(_ context.Context, c *model.Candidate, a *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	a.ID = uuid.New()
	a.CandidateID = c.ID
	a.CreatedAt = time.Now()
	cc := *c
	m.candidates[c.ID] = &cc
	ac := *a
	m.apps[a.ID] = &ac
	m.setStatus(&ac, model.StatusPending)
	a.Status = model.StatusPending
	return nil
}

func (m *memDB) FindApplicationByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memDB) FindApplicationsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Application
	for _, id := range ids {
		if a, ok := m.apps[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memDB) transition(id uuid.UUID, from []model.Status, to model.Status, apply func(*model.Application)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return false
	}
	for _, s := range from {
		if a.Status == s {
			if apply != nil {
				apply(a)
			}
			m.setStatus(a, to)
			return true
		}
	}
	return false
}

func (m *memDB) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, []model.Status{model.StatusPending}, model.StatusProcessing, nil), nil
}

func (m *memDB) SaveParsedSummary(_ context.Context, id uuid.UUID, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[id].ParsedSummary = summary
	return nil
}

func (m *memDB) SetEmbeddingID(_ context.Context, id uuid.UUID, embeddingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[id].EmbeddingID = &embeddingID
	return nil
}

func (m *memDB) Complete(_ context.Context, id uuid.UUID, c repository.Completion) (bool, error) {
	if m.failComplete {
		return false, errStoreDown
	}
	ok := m.transition(id, []model.Status{model.StatusProcessing}, model.StatusCompleted, func(a *model.Application) {
		score := c.Score
		a.MatchScore = &score
		a.ScoreBreakdown = c.Breakdown
		a.Summary = c.Summary
		a.ScoreStale = false
	})
	if ok {
		m.mu.Lock()
		m.completes++
		m.mu.Unlock()
	}
	return ok, nil
}

func (m *memDB) MarkFailed(_ context.Context, id uuid.UUID, summary string) error {
	m.transition(id, []model.Status{model.StatusPending, model.StatusProcessing}, model.StatusFailed, func(a *model.Application) {
		a.Summary = summary
	})
	return nil
}

func (m *memDB) Requeue(_ context.Context, id uuid.UUID, from ...model.Status) (bool, error) {
	return m.transition(id, from, model.StatusPending, func(a *model.Application) {
		a.MatchScore = nil
		a.ScoreBreakdown = nil
		a.Summary = ""
	}), nil
}

func (m *memDB) RecoverStale(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.apps {
		if a.Status == model.StatusProcessing && a.UpdatedAt.Before(cutoff) {
			m.setStatus(a, model.StatusPending)
			n++
		}
	}
	return n, nil
}

func (m *memDB) PendingIDs(_ context.Context, _ int) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, a := range m.apps {
		if a.Status == model.StatusPending {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memDB) RankedByJob(_ context.Context, jobID uuid.UUID, _, _ int) ([]model.Application, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Application
	for _, a := range m.apps {
		if a.JobID == jobID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchScore == nil {
			return false
		}
		if out[j].MatchScore == nil {
			return true
		}
		return *out[i].MatchScore > *out[j].MatchScore
	})
	return out, int64(len(out)), nil
}

func (m *memDB) CountByBatch(_ context.Context, batchID uuid.UUID) (map[model.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.Status]int64{}
	for _, a := range m.apps {
		if a.BatchID != nil && *a.BatchID == batchID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *memDB) CountByStatus(_ context.Context, _ *uuid.UUID) (map[model.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.Status]int64{}
	for _, a := range m.apps {
		counts[a.Status]++
	}
	return counts, nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	names map[string]string
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}, names: map[string]string{}}
}

func (f *memFiles) Upload(_ context.Context, data []byte, filename, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.files[id] = data
	f.names[id] = filename
	return id, nil
}

func (f *memFiles) Download(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (f *memFiles) Metadata(_ context.Context, id string) (*storage.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[id]; !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Metadata{ID: id, Name: f.names[id]}, nil
}

func (f *memFiles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, id)
	return nil
}

type memIndex struct {
	mu      sync.Mutex
	vectors map[string][]float32
	meta    map[string]map[string]any
}

func newMemIndex() *memIndex {
	return &memIndex{vectors: map[string][]float32{}, meta: map[string]map[string]any{}}
}

func (x *memIndex) Upsert(_ context.Context, id string, vector []float32, metadata map[string]any) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors[id] = vector
	x.meta[id] = metadata
	return id, nil
}

func (x *memIndex) Search(_ context.Context, _ []float32, topK int, filter map[string]any) ([]vectorindex.Match, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []vectorindex.Match
	for id, meta := range x.meta {
		if meta["job_id"] == filter["job_id"] {
			out = append(out, vectorindex.Match{ID: id, Score: 0.5, Metadata: meta})
		}
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (x *memIndex) Delete(_ context.Context, filter map[string]any) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	var n int64
	for id, meta := range x.meta {
		if meta["job_id"] == filter["job_id"] {
			delete(x.meta, id)
			delete(x.vectors, id)
			n++
		}
	}
	return n, nil
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *recordingQueue) Enqueue(_ context.Context, id uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return true, nil
}

func (q *recordingQueue) TryEnqueue(id uuid.UUID) (bool, error) {
	return q.Enqueue(context.Background(), id)
}
