package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Requirements string    `gorm:"type:text" json:"requirements"` // comma-separated skill tokens
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	OwnerID      string    `gorm:"type:varchar(255);index" json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}

// RequirementTokens splits Requirements on commas, trimming blanks and
// dropping empty tokens. Input order is preserved.
func (j *Job) RequirementTokens() []string {
	var tokens []string
	for _, raw := range strings.Split(j.Requirements, ",") {
		if token := strings.TrimSpace(raw); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// FullText is the text embedded as the job's context.
func (j *Job) FullText() string {
	return strings.TrimSpace(j.Title + " " + j.Description + " " + j.Requirements)
}
