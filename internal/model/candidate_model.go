package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

type Candidate struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name            string           `gorm:"type:varchar(255)" json:"name"`
	Email           string           `gorm:"type:varchar(255);index" json:"email"`
	Phone           string           `gorm:"type:varchar(64)" json:"phone"`
	Links           pq.StringArray   `gorm:"type:text[]" json:"links"`
	Skills          pq.StringArray   `gorm:"type:text[]" json:"skills"`
	ExperienceYears float64          `gorm:"type:float;default:0" json:"experience_years"`
	Education       pq.StringArray   `gorm:"type:text[]" json:"education"`
	ExtractedText   string           `gorm:"type:text" json:"-"`
	Embedding       *pgvector.Vector `gorm:"type:vector" json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (c *Candidate) TableName() string {
	return "candidates"
}

// SkillsText joins skills into the text embedded as the candidate's skill signal.
func (c *Candidate) SkillsText() string {
	return strings.Join(c.Skills, ", ")
}

// NormalizeSkills trims and de-duplicates skills case-insensitively, keeping
// the first spelling seen.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
