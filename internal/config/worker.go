package config

import (
	"strings"
	"sync"
	"time"
)

type WorkerConfig struct {
	Concurrency              int
	QueueSize                int
	PresentYear              int
	MaxResumeFileSizeMB      int
	AllowedResumeTypes       []string
	UploadDir                string
	PDFOCR                   bool
	VectorRecreateOnMismatch bool
	// SweepInterval is how often the server re-enqueues pending applications
	// left behind by restarts or by screenctl. Zero disables the sweep.
	SweepInterval time.Duration
}

var (
	workerConfig *WorkerConfig
	workerOnce   sync.Once
)

func LoadWorkerConfig() *WorkerConfig {
	workerOnce.Do(func() {
		v := newEnv()
		v.SetDefault("WORKER_CONCURRENCY", 4)
		v.SetDefault("WORKER_QUEUE_SIZE", 256)
		v.SetDefault("PARSER_PRESENT_YEAR", 0)
		v.SetDefault("MAX_RESUME_FILE_SIZE_MB", 10)
		v.SetDefault("ALLOWED_RESUME_TYPES", "pdf,docx,txt")
		v.SetDefault("UPLOAD_DIR", "./uploads/resumes")
		v.SetDefault("WORKER_SWEEP_INTERVAL", 30*time.Second)

		var types []string
		for _, t := range strings.Split(v.GetString("ALLOWED_RESUME_TYPES"), ",") {
			t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
			if t != "" {
				types = append(types, t)
			}
		}
		workerConfig = &WorkerConfig{
			Concurrency:              v.GetInt("WORKER_CONCURRENCY"),
			QueueSize:                v.GetInt("WORKER_QUEUE_SIZE"),
			PresentYear:              v.GetInt("PARSER_PRESENT_YEAR"),
			MaxResumeFileSizeMB:      v.GetInt("MAX_RESUME_FILE_SIZE_MB"),
			AllowedResumeTypes:       types,
			UploadDir:                v.GetString("UPLOAD_DIR"),
			PDFOCR:                   v.GetBool("PDF_OCR"),
			VectorRecreateOnMismatch: v.GetBool("VECTOR_RECREATE_ON_MISMATCH"),
			SweepInterval:            v.GetDuration("WORKER_SWEEP_INTERVAL"),
		}
	})
	return workerConfig
}
