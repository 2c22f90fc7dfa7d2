package domain

import "time"

type ArtifactKind string

const (
	ArtifactScreenshot   ArtifactKind = "screenshot"
	ArtifactHTMLSnapshot ArtifactKind = "html_snapshot"
)

// Artifact is a write-once diagnostic byproduct of an application attempt.
type Artifact struct {
	ID            string
	ApplicationID string
	Kind          ArtifactKind
	Path          string
	Label         string
	CreatedAt     time.Time
}

type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
)

// Run is the audit record of one coordinator invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Processed  int
	Submitted  int
	Skipped    int
	Errored    int
}

// Digest is one raw email handed over by the email source.
type Digest struct {
	MessageID  string
	Subject    string
	From       string
	HTML       string
	ReceivedAt time.Time
}
