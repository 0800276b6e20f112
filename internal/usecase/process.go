package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/embedding"
	"github.com/fadilmartias/resume-screener/internal/explain"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/parser"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/scoring"
)

// ScoreRecord is what gets stored as an application's score_breakdown.
type ScoreRecord struct {
	scoring.Breakdown
	ParseOutcome      parser.Outcome `json:"parse_outcome"`
	ExplanationSource explain.Source `json:"explanation_source"`
}

type signals struct {
	jobContext       embedding.Result
	candidateContext embedding.Result
	requirements     embedding.Result
	skills           embedding.Result
}

// ProcessApplication drives one application from pending to completed or
// failed. Anything other than a pending application is left untouched, so
// duplicate deliveries are no-ops. Extraction and parse problems end in
// failed; only store errors are returned.
func (uc *ScreeningUsecase) ProcessApplication(ctx context.Context, id uuid.UUID) (err error) {
	log := uc.logger.With(zap.String(logger.FieldApplicationID, id.String()))

	app, err := uc.apps.FindApplicationByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("application not found")
		return fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load application: %w: %w", ErrPersistence, err)
	}
	if app.Status != model.StatusPending {
		log.Info("skipping application", zap.String("status", app.Status.String()))
		return nil
	}

	claimed, err := uc.apps.Claim(ctx, id)
	if err != nil {
		return fmt.Errorf("claim application: %w: %w", ErrPersistence, err)
	}
	if !claimed {
		log.Info("application claimed by another run")
		return nil
	}

	log = logger.ForApplication(uc.logger, id.String(), app.JobID.String())
	defer func() {
		if r := recover(); r != nil {
			log.Error("processing panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = uc.fail(ctx, log, id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	log.Info("processing application")
	return uc.run(ctx, log, app)
}

func (uc *ScreeningUsecase) run(ctx context.Context, log *zap.Logger, app *model.Application) error {
	job, err := uc.jobs.FindJobByID(ctx, app.JobID)
	if errors.Is(err, repository.ErrNotFound) {
		return uc.fail(ctx, log, app.ID, "job no longer exists")
	}
	if err != nil {
		return uc.persistenceFailure(ctx, log, app.ID, "load job", err)
	}

	candidate := app.Candidate
	if candidate == nil {
		if candidate, err = uc.candidates.FindCandidateByID(ctx, app.CandidateID); err != nil {
			return uc.persistenceFailure(ctx, log, app.ID, "load candidate", err)
		}
	}

	data, err := uc.files.Download(ctx, app.ResumeFileID)
	if err != nil {
		return uc.fail(ctx, log, app.ID, fmt.Sprintf("could not read résumé file: %v", err))
	}
	profile, err := uc.parser.ParseDocument(ctx, data, app.ResumeFileName)
	if err != nil {
		return uc.fail(ctx, log, app.ID, err.Error())
	}
	log.Info("résumé parsed",
		zap.String(logger.FieldStep, "parse"),
		zap.String("outcome", string(profile.Outcome)),
		zap.Int("skills", len(profile.Skills)),
		zap.Float64("experience_years", profile.ExperienceYears))

	applyProfile(candidate, profile)
	if err := uc.candidates.UpdateProfile(ctx, candidate); err != nil {
		return uc.persistenceFailure(ctx, log, app.ID, "save profile", err)
	}
	if err := uc.apps.SaveParsedSummary(ctx, app.ID, profile.Summary); err != nil {
		return uc.persistenceFailure(ctx, log, app.ID, "save parsed summary", err)
	}

	sig := uc.embed(ctx, job, candidate)
	if !sig.candidateContext.Empty() {
		if err := uc.candidates.UpdateEmbedding(ctx, candidate.ID, sig.candidateContext.Vector); err != nil {
			return uc.persistenceFailure(ctx, log, app.ID, "save embedding", err)
		}
		uc.indexCandidate(ctx, log, app, sig.candidateContext.Vector)
	}

	breakdown := scoring.Score(scoring.Input{
		JobContext:        sig.jobContext.Vector,
		CandidateContext:  sig.candidateContext.Vector,
		JobRequirements:   sig.requirements.Vector,
		CandidateSkills:   sig.skills.Vector,
		RequirementTokens: job.RequirementTokens(),
		CandidateText:     profile.RawText,
	})
	log.Info("application scored",
		zap.String(logger.FieldStep, "score"),
		zap.Float64("total_score", breakdown.TotalScore),
		zap.Strings("degraded_signals", breakdown.DegradedSignals))

	explanation := uc.explainer.Explain(ctx, explain.Request{
		JobTitle:      job.Title,
		Requirements:  job.Requirements,
		CandidateText: profile.RawText,
		Score:         breakdown.TotalScore,
	})

	raw, err := json.Marshal(ScoreRecord{
		Breakdown:         breakdown,
		ParseOutcome:      profile.Outcome,
		ExplanationSource: explanation.Source,
	})
	if err != nil {
		return uc.fail(ctx, log, app.ID, fmt.Sprintf("encode score breakdown: %v", err))
	}

	ok, err := uc.apps.Complete(ctx, app.ID, repository.Completion{
		Score:     breakdown.TotalScore,
		Breakdown: raw,
		Summary:   explanation.Text,
	})
	if err != nil {
		return uc.persistenceFailure(ctx, log, app.ID, "complete application", err)
	}
	if !ok {
		log.Warn("application left processing before completion")
		return nil
	}
	log.Info("application completed", zap.Float64("match_score", breakdown.TotalScore))
	return nil
}

// embed computes the four signals one after another; each degrades on its own.
func (uc *ScreeningUsecase) embed(ctx context.Context, job *model.Job, candidate *model.Candidate) signals {
	return signals{
		candidateContext: uc.embedder.Embed(ctx, candidate.ExtractedText),
		jobContext:       uc.embedder.Embed(ctx, job.FullText()),
		requirements:     uc.embedder.Embed(ctx, job.Requirements),
		skills:           uc.embedder.Embed(ctx, candidate.SkillsText()),
	}
}

// indexCandidate publishes the résumé vector for semantic search. The vector
// id is the application id so reprocessing overwrites instead of duplicating.
func (uc *ScreeningUsecase) indexCandidate(ctx context.Context, log *zap.Logger, app *model.Application, vector []float32) {
	if uc.index == nil {
		return
	}
	id, err := uc.index.Upsert(ctx, app.ID.String(), vector, map[string]any{
		"job_id":         app.JobID.String(),
		"application_id": app.ID.String(),
		"candidate_id":   app.CandidateID.String(),
	})
	if err != nil {
		log.Warn("vector index upsert failed", zap.String(logger.FieldStep, "index"), zap.Error(err))
		return
	}
	if err := uc.apps.SetEmbeddingID(ctx, app.ID, id); err != nil {
		log.Warn("save embedding id failed", zap.Error(err))
	}
}

func applyProfile(c *model.Candidate, p *parser.ParsedProfile) {
	// The fallback name is a weak guess; keep a name given at submission.
	if p.Name != "" && (c.Name == "" || p.Outcome == parser.OutcomeLLM) {
		c.Name = p.Name
	}
	if p.Email != "" {
		c.Email = p.Email
	}
	if p.Phone != "" {
		c.Phone = p.Phone
	}
	c.Links = p.Links
	c.Skills = model.NormalizeSkills(p.Skills)
	c.ExperienceYears = p.ExperienceYears
	c.Education = p.Education
	c.ExtractedText = p.RawText
}

func (uc *ScreeningUsecase) fail(ctx context.Context, log *zap.Logger, id uuid.UUID, summary string) error {
	log.Warn("application failed", zap.String("reason", summary))
	ctx, cancel := detached(ctx)
	defer cancel()
	if err := uc.apps.MarkFailed(ctx, id, summary); err != nil {
		log.Error("mark failed", zap.Error(err))
		return fmt.Errorf("mark failed: %w: %w", ErrPersistence, err)
	}
	return nil
}

func (uc *ScreeningUsecase) persistenceFailure(ctx context.Context, log *zap.Logger, id uuid.UUID, op string, cause error) error {
	log.Error("store error while processing", zap.String("op", op), zap.Error(cause))
	_ = uc.fail(ctx, log, id, "processing interrupted by a storage error; re-enqueue to retry")
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, cause)
}
