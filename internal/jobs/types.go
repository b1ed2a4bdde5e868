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

// JobPayload is the input of one dubbing run.
type JobPayload struct {
	SRT        string `json:"srt"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Voice      string `json:"voice"`
	Model      string `json:"model"`
}

// JobResult is what a finished dubbing run produced.
type JobResult struct {
	BatchID  string `json:"batch_id,omitempty"`
	TrackURL string `json:"track_url,omitempty"`
}

type DubJob struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	DedupeKey string     `json:"dedupe_key"`
	Payload   JobPayload `json:"payload"`
	Result    JobResult  `json:"result"`
	Status    Status     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
