package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Application is one résumé submitted to one job and the unit of work the
// processing pipeline drives through its Status lifecycle.
type Application struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	CandidateID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"candidate_id"`
	ResumeFileID   string         `gorm:"type:varchar(255);not null" json:"resume_file_id"`
	ResumeFileName string         `gorm:"type:varchar(255)" json:"resume_file_name"`
	Status         Status         `gorm:"type:varchar(50);not null;default:pending;index" json:"status"`
	ParsedSummary  string         `gorm:"type:text" json:"parsed_summary"`
	EmbeddingID    *string        `gorm:"type:varchar(64)" json:"embedding_id"`
	BatchID        *uuid.UUID     `gorm:"type:uuid;index" json:"batch_id"`
	MatchScore     *float64       `gorm:"type:float" json:"match_score"`
	ScoreBreakdown datatypes.JSON `gorm:"type:jsonb" json:"score_breakdown"`
	ScoreStale     bool           `gorm:"default:false" json:"score_stale"`
	Summary        string         `gorm:"type:text" json:"summary"`
	Candidate      *Candidate     `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (a *Application) TableName() string {
	return "applications"
}
