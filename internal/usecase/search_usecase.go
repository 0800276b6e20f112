package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fadilmartias/resume-screener/internal/embedding"
	"github.com/fadilmartias/resume-screener/internal/model"
)

type SearchHit struct {
	Application model.Application `json:"application"`
	Similarity  float64           `json:"similarity"`
}

// SearchApplicants ranks a job's applicants by semantic similarity between
// query and their résumé vectors.
func (uc *ScreeningUsecase) SearchApplicants(ctx context.Context, jobID uuid.UUID, query string, topK int) ([]SearchHit, error) {
	if uc.index == nil {
		return nil, fmt.Errorf("%w: vector search is disabled", ErrInvalidState)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if _, err := uc.GetJob(ctx, jobID); err != nil {
		return nil, err
	}

	res := uc.embedder.Embed(ctx, query)
	if res.Status != embedding.StatusOK {
		return nil, fmt.Errorf("embed query: %s: %v", res.Status, res.Err)
	}

	matches, err := uc.index.Search(ctx, res.Vector, topK, map[string]any{"job_id": jobID.String()})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if id, err := uuid.Parse(m.ID); err == nil {
			ids = append(ids, id)
		}
	}
	apps, err := uc.apps.FindApplicationsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Application, len(apps))
	for _, a := range apps {
		byID[a.ID] = a
	}

	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			continue
		}
		if app, ok := byID[id]; ok {
			hits = append(hits, SearchHit{Application: app, Similarity: m.Score})
		}
	}
	return hits, nil
}
