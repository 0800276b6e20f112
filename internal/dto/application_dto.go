package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fadilmartias/resume-screener/internal/model"
)

type CandidateDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Links           []string  `json:"links"`
	Skills          []string  `json:"skills"`
	ExperienceYears float64   `json:"experience_years"`
	Education       []string  `json:"education"`
}

type ApplicationDTO struct {
	ID             uuid.UUID       `json:"id"`
	JobID          uuid.UUID       `json:"job_id"`
	CandidateID    uuid.UUID       `json:"candidate_id"`
	Status         string          `json:"status"` // pending, processing, completed, failed
	ResumeFileName string          `json:"resume_file_name"`
	BatchID        *uuid.UUID      `json:"batch_id,omitempty"`
	MatchScore     *float64        `json:"match_score"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown,omitempty"`
	ScoreStale     bool            `json:"score_stale"`
	ParsedSummary  string          `json:"parsed_summary,omitempty"`
	Summary        string          `json:"summary"`
	Candidate      *CandidateDTO   `json:"candidate,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type SearchHitDTO struct {
	Similarity  float64        `json:"similarity"`
	Application ApplicationDTO `json:"application"`
}

type BatchSubmitDTO struct {
	BatchID      uuid.UUID        `json:"batch_id"`
	Applications []ApplicationDTO `json:"applications"`
	Rejected     any              `json:"rejected"`
}

func NewCandidateDTO(c *model.Candidate) *CandidateDTO {
	if c == nil {
		return nil
	}
	return &CandidateDTO{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Links:           nonNil(c.Links),
		Skills:          nonNil(c.Skills),
		ExperienceYears: c.ExperienceYears,
		Education:       nonNil(c.Education),
	}
}

func NewApplicationDTO(a *model.Application) ApplicationDTO {
	d := ApplicationDTO{
		ID:             a.ID,
		JobID:          a.JobID,
		CandidateID:    a.CandidateID,
		Status:         a.Status.String(),
		ResumeFileName: a.ResumeFileName,
		BatchID:        a.BatchID,
		MatchScore:     a.MatchScore,
		ScoreStale:     a.ScoreStale,
		ParsedSummary:  a.ParsedSummary,
		Summary:        a.Summary,
		Candidate:      NewCandidateDTO(a.Candidate),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if len(a.ScoreBreakdown) > 0 {
		d.ScoreBreakdown = json.RawMessage(a.ScoreBreakdown)
	}
	return d
}

func NewApplicationDTOs(apps []model.Application) []ApplicationDTO {
	out := make([]ApplicationDTO, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationDTO(&apps[i]))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
