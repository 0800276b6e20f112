package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/fadilmartias/resume-screener/internal/model"
)

type JobRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"` // comma-separated skill tokens
	IsActive     *bool  `json:"is_active"`
	OwnerID      string `json:"owner_id"`
}

type JobDTO struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Requirements      string    `json:"requirements"`
	RequirementTokens []string  `json:"requirement_tokens"`
	IsActive          bool      `json:"is_active"`
	OwnerID           string    `json:"owner_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewJobDTO(j *model.Job) JobDTO {
	return JobDTO{
		ID:                j.ID,
		Title:             j.Title,
		Description:       j.Description,
		Requirements:      j.Requirements,
		RequirementTokens: nonNil(j.RequirementTokens()),
		IsActive:          j.IsActive,
		OwnerID:           j.OwnerID,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

func NewJobDTOs(jobs []model.Job) []JobDTO {
	out := make([]JobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, NewJobDTO(&jobs[i]))
	}
	return out
}
