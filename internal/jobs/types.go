package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type EnqueueRequest struct {
	Source    string
	DedupeKey string
	Payload   JobPayload
}

// JobPayload identifies one document translation run.
type JobPayload struct {
	InputFile string `json:"input_file"`
	OutputDir string `json:"output_dir"`
	LangIn    string `json:"lang_in"`
	LangOut   string `json:"lang_out"`
}

// TranslationJob is one queued run. Fields are snapshots; the queue
// hands out copies, never its internal pointers.
type TranslationJob struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	DedupeKey string     `json:"dedupe_key"`
	Payload   JobPayload `json:"payload"`
	Status    Status     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
