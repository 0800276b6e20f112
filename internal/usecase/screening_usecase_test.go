package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fadilmartias/resume-screener/internal/embedding"
	"github.com/fadilmartias/resume-screener/internal/explain"
	"github.com/fadilmartias/resume-screener/internal/extract"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/parser"
	"github.com/fadilmartias/resume-screener/internal/queue"
)

type pipeline struct {
	uc    *ScreeningUsecase
	db    *memDB
	files *memFiles
	index *memIndex
	queue *recordingQueue
	job   *model.Job
}

type panickingExplainer struct{}

func (panickingExplainer) Explain(context.Context, explain.Request) explain.Result {
	panic("explainer exploded")
}

func newPipeline(t *testing.T, requirements string, opts ...func(*Deps)) *pipeline {
	t.Helper()
	p := &pipeline{db: newMemDB(), files: newMemFiles(), index: newMemIndex(), queue: &recordingQueue{}}
	deps := Deps{
		Jobs:         p.db,
		Candidates:   p.db,
		Applications: p.db,
		Files:        p.files,
		Index:        p.index,
		Parser:       parser.New(extract.New(nil), nil, nil, parser.WithPresentYear(2024)),
		Embedder:     embedding.NewGenerator(embedding.NewHashingProvider(64), nil),
		Explainer:    explain.New(nil, nil),
		Queue:        p.queue,
		AllowedTypes: []string{"pdf", "docx", "txt"},
		MaxFileSize:  1 << 20,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	p.uc = NewScreeningUsecase(deps)

	job, err := p.uc.CreateJob(context.Background(), JobInput{Title: "Backend Engineer", Requirements: requirements})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	p.job = job
	return p
}

func (p *pipeline) submit(t *testing.T, name string, data string) *model.Application {
	t.Helper()
	app, err := p.uc.Submit(context.Background(), SubmitRequest{
		JobID:  p.job.ID,
		Resume: Upload{FileName: name, Data: []byte(data)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app
}

func (p *pipeline) record(t *testing.T, id uuid.UUID) (*model.Application, ScoreRecord) {
	t.Helper()
	app, err := p.uc.GetApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	var rec ScoreRecord
	if len(app.ScoreBreakdown) > 0 {
		if err := json.Unmarshal(app.ScoreBreakdown, &rec); err != nil {
			t.Fatalf("decode breakdown: %v", err)
		}
	}
	return app, rec
}

func TestProcessPlainTextResumeEndToEnd(t *testing.T) {
	p := newPipeline(t, "Python, Kubernetes")
	app := p.submit(t, "jane.txt", "Jane Doe\njane@example.com\nSkills: Python, Docker\nAcme 2019-2022")

	if len(p.queue.ids) != 1 || p.queue.ids[0] != app.ID {
		t.Fatalf("application not enqueued: %v", p.queue.ids)
	}
	if err := p.uc.ProcessApplication(context.Background(), app.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, rec := p.record(t, app.ID)
	if got.Status != model.StatusCompleted {
		t.Fatalf("status = %s, summary = %q", got.Status, got.Summary)
	}
	if !reflect.DeepEqual(rec.MatchedSkills, []string{"Python"}) || rec.KeywordScore != 0.5 {
		t.Fatalf("keyword part = %v / %v", rec.MatchedSkills, rec.KeywordScore)
	}
	if got.MatchScore == nil || *got.MatchScore != rec.TotalScore {
		t.Fatalf("match score %v does not match breakdown %v", got.MatchScore, rec.TotalScore)
	}
	if rec.TotalScore < 0 || rec.TotalScore > 1 {
		t.Fatalf("total score out of range: %v", rec.TotalScore)
	}
	if got.Summary != explain.PlaceholderUnavailable || rec.ExplanationSource != explain.SourcePlaceholder {
		t.Fatalf("summary = %q, source = %s", got.Summary, rec.ExplanationSource)
	}
	if rec.ParseOutcome != parser.OutcomeFallback {
		t.Fatalf("parse outcome = %s", rec.ParseOutcome)
	}
	if got.EmbeddingID == nil || *got.EmbeddingID != app.ID.String() {
		t.Fatalf("embedding id = %v", got.EmbeddingID)
	}

	cand, _ := p.db.FindCandidateByID(context.Background(), got.CandidateID)
	if cand.Name != "Jane Doe" || cand.Email != "jane@example.com" || cand.ExperienceYears != 3 {
		t.Fatalf("candidate profile not stored: %+v", cand)
	}
}

func TestProcessCorruptFileEndsFailed(t *testing.T) {
	p := newPipeline(t, "Go")
	app := p.submit(t, "broken.pdf", "%PDF-1.4 this is not really a pdf")

	if err := p.uc.ProcessApplication(context.Background(), app.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := p.record(t, app.ID)
	if got.Status != model.StatusFailed || strings.TrimSpace(got.Summary) == "" {
		t.Fatalf("status = %s, summary = %q", got.Status, got.Summary)
	}
	if got.MatchScore != nil || len(got.ScoreBreakdown) != 0 {
		t.Fatalf("failed application carries a score")
	}
	want := []model.Status{model.StatusPending, model.StatusProcessing, model.StatusFailed}
	if !reflect.DeepEqual(p.db.statusLog[app.ID], want) {
		t.Fatalf("status history = %v", p.db.statusLog[app.ID])
	}
}

func TestProcessIsIdempotentOnDuplicateDelivery(t *testing.T) {
	p := newPipeline(t, "Python")
	app := p.submit(t, "cv.txt", "John Smith\nPython developer")

	for i := 0; i < 2; i++ {
		if err := p.uc.ProcessApplication(context.Background(), app.ID); err != nil {
			t.Fatalf("process #%d: %v", i+1, err)
		}
	}
	first, rec := p.record(t, app.ID)

	if err := p.uc.ProcessApplication(context.Background(), app.ID); err != nil {
		t.Fatalf("process #3: %v", err)
	}
	second, rec2 := p.record(t, app.ID)

	if p.db.completes != 1 {
		t.Fatalf("completed %d times", p.db.completes)
	}
	if *first.MatchScore != *second.MatchScore || !reflect.DeepEqual(rec, rec2) {
		t.Fatalf("score changed on duplicate delivery")
	}
}

func TestProcessPersistenceFailure(t *testing.T) {
	p := newPipeline(t, "Python")
	app := p.submit(t, "cv.txt", "John Smith\nPython developer")
	p.db.failComplete = true

	err := p.uc.ProcessApplication(context.Background(), app.ID)
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	got, _ := p.record(t, app.ID)
	if got.Status == model.StatusProcessing {
		t.Fatalf("application left in processing")
	}
	if got.MatchScore != nil {
		t.Fatalf("partial score persisted")
	}
}

func TestProcessRecoversPanic(t *testing.T) {
	p := newPipeline(t, "Python", func(d *Deps) { d.Explainer = panickingExplainer{} })
	app := p.submit(t, "cv.txt", "John Smith\nPython developer")

	if err := p.uc.ProcessApplication(context.Background(), app.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	got, _ := p.record(t, app.ID)
	if got.Status != model.StatusFailed || !strings.Contains(got.Summary, "explainer exploded") {
		t.Fatalf("status = %s, summary = %q", got.Status, got.Summary)
	}
}

func TestProcessMissingApplication(t *testing.T) {
	p := newPipeline(t, "Python")
	if err := p.uc.ProcessApplication(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	p := newPipeline(t, "Python")
	tests := []struct {
		name   string
		upload Upload
	}{
		{name: "unsupported", upload: Upload{FileName: "cv.exe", Data: []byte("x")}},
		{name: "not allowed", upload: Upload{FileName: "cv.rtf", Data: []byte("x")}},
		{name: "empty", upload: Upload{FileName: "cv.txt"}},
		{name: "too large", upload: Upload{FileName: "cv.txt", Data: make([]byte, 2<<20)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.uc.Submit(context.Background(), SubmitRequest{JobID: p.job.ID, Resume: tt.upload})
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v", err)
			}
		})
	}

	inactive := false
	if _, _, err := p.uc.UpdateJob(context.Background(), p.job.ID, JobInput{IsActive: &inactive}); err != nil {
		t.Fatalf("update job: %v", err)
	}
	_, err := p.uc.Submit(context.Background(), SubmitRequest{JobID: p.job.ID, Resume: Upload{FileName: "cv.txt", Data: []byte("x")}})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("submit to inactive job: %v", err)
	}
}

func TestSubmitBatchAndStatus(t *testing.T) {
	p := newPipeline(t, "Python")
	res, err := p.uc.SubmitBatch(context.Background(), p.job.ID, []Upload{
		{FileName: "a.txt", Data: []byte("Alice\nPython")},
		{FileName: "b.exe", Data: []byte("bad")},
		{FileName: "c.txt", Data: []byte("Carol\nRust")},
	})
	if err != nil {
		t.Fatalf("submit batch: %v", err)
	}
	if len(res.Applications) != 2 || len(res.Rejected) != 1 || res.Rejected[0].FileName != "b.exe" {
		t.Fatalf("unexpected batch result %+v", res)
	}

	status, err := p.uc.BatchStatus(context.Background(), res.BatchID)
	if err != nil || status.Total != 2 || status.Done {
		t.Fatalf("status = %+v, %v", status, err)
	}

	for _, a := range res.Applications {
		_ = p.uc.ProcessApplication(context.Background(), a.ID)
	}
	status, _ = p.uc.BatchStatus(context.Background(), res.BatchID)
	if !status.Done || status.Counts[model.StatusCompleted] != 2 {
		t.Fatalf("status after processing = %+v", status)
	}

	if _, err := p.uc.BatchStatus(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown batch err = %v", err)
	}
}

func TestReprocess(t *testing.T) {
	p := newPipeline(t, "Go")
	app := p.submit(t, "broken.pdf", "not a pdf")

	if err := p.uc.Reprocess(context.Background(), app.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reprocess pending = %v", err)
	}

	_ = p.uc.ProcessApplication(context.Background(), app.ID)
	if err := p.uc.Reprocess(context.Background(), app.ID); err != nil {
		t.Fatalf("reprocess failed application: %v", err)
	}
	got, _ := p.record(t, app.ID)
	if got.Status != model.StatusPending || got.Summary != "" {
		t.Fatalf("status = %s, summary = %q", got.Status, got.Summary)
	}
	if n := len(p.queue.ids); n != 2 || p.queue.ids[1] != app.ID {
		t.Fatalf("not re-enqueued: %v", p.queue.ids)
	}
}

func TestUpdateJobRequirementsFlagsStaleScores(t *testing.T) {
	p := newPipeline(t, "Python")
	app := p.submit(t, "cv.txt", "John Smith\nPython developer")
	_ = p.uc.ProcessApplication(context.Background(), app.ID)

	_, staled, err := p.uc.UpdateJob(context.Background(), p.job.ID, JobInput{Description: "new text"})
	if err != nil || staled != 0 {
		t.Fatalf("description change staled %d, %v", staled, err)
	}

	job, staled, err := p.uc.UpdateJob(context.Background(), p.job.ID, JobInput{Requirements: "Python, Go"})
	if err != nil || staled != 1 || job.Requirements != "Python, Go" {
		t.Fatalf("requirements change staled %d, %v", staled, err)
	}
	got, _ := p.record(t, app.ID)
	if !got.ScoreStale || got.MatchScore == nil {
		t.Fatalf("score should be kept and flagged stale: %+v", got)
	}
}

func TestSearchApplicantsAndDeleteJob(t *testing.T) {
	p := newPipeline(t, "Python")
	app := p.submit(t, "cv.txt", "John Smith\nPython developer")
	_ = p.uc.ProcessApplication(context.Background(), app.ID)

	hits, err := p.uc.SearchApplicants(context.Background(), p.job.ID, "python engineer", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Application.ID != app.ID {
		t.Fatalf("hits = %+v", hits)
	}
	if _, err := p.uc.SearchApplicants(context.Background(), p.job.ID, "  ", 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank query err = %v", err)
	}

	if err := p.uc.DeleteJob(context.Background(), p.job.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	if len(p.index.vectors) != 0 {
		t.Fatalf("vectors left after job delete")
	}
	if _, err := p.uc.GetJob(context.Background(), p.job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted job err = %v", err)
	}
}

func TestEnqueuePendingAndRecoverStale(t *testing.T) {
	p := newPipeline(t, "Python")
	a := p.submit(t, "a.txt", "Alice\nPython")
	b := p.submit(t, "b.txt", "Bob\nPython")
	p.queue.ids = nil

	if ok, _ := p.db.Claim(context.Background(), b.ID); !ok {
		t.Fatalf("claim failed")
	}
	n, err := p.uc.EnqueuePending(context.Background(), 0)
	if err != nil || n != 1 || p.queue.ids[0] != a.ID {
		t.Fatalf("enqueue pending = %d, %v, %v", n, err, p.queue.ids)
	}

	recovered, err := p.uc.RecoverStale(context.Background(), -1)
	if err != nil || recovered != 1 {
		t.Fatalf("recover stale = %d, %v", recovered, err)
	}
	got, _ := p.record(t, b.ID)
	if got.Status != model.StatusPending {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestSubmitDoesNotWaitOnFullQueue(t *testing.T) {
	// one slot and no running worker: the second submission finds it taken
	pool := queue.New(1, 1, func(context.Context, uuid.UUID) {}, nil)
	p := newPipeline(t, "Python", func(d *Deps) { d.Queue = pool })

	p.submit(t, "first.txt", "Skills: Python")

	done := make(chan *model.Application, 1)
	go func() {
		app, err := p.uc.Submit(context.Background(), SubmitRequest{
			JobID:  p.job.ID,
			Resume: Upload{FileName: "second.txt", Data: []byte("Skills: Python")},
		})
		if err != nil {
			t.Errorf("submit: %v", err)
		}
		done <- app
	}()

	var second *model.Application
	select {
	case second = <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Submit blocked on a full queue")
	}
	if second == nil {
		return
	}
	if second.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending", second.Status)
	}
	if pool.InFlight() != 1 {
		t.Fatalf("in flight = %d, want only the first submission", pool.InFlight())
	}

	pool.Start(context.Background())
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
