package store

import (
	"database/sql"
	"fmt"
)

// Migrate applies schema versions tracked by PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 2 {
		return tx.Commit()
	}

	if v < 1 {
		// ---- Schema v1: tables ----
		stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  ats_type TEXT NOT NULL DEFAULT 'unknown',
  ats_hint TEXT NOT NULL DEFAULT '',
  posted_at TEXT,
  discovered_at TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  fit_reason TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'discovered',
  source_email TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS application_runs (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT,
  status TEXT NOT NULL,
  processed INTEGER NOT NULL DEFAULT 0,
  submitted INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  errored INTEGER NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  job_id TEXT NOT NULL REFERENCES jobs(id),
  run_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  resume_variant TEXT NOT NULL DEFAULT '',
  started_at TEXT,
  completed_at TEXT,
  updated_at TEXT NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  llm_recommendation TEXT,
  llm_rationale TEXT NOT NULL DEFAULT '',
  answers_used TEXT NOT NULL DEFAULT '{}'
);`, `
CREATE TABLE IF NOT EXISTS question_answers (
  ats_type TEXT NOT NULL,
  question TEXT NOT NULL,
  answer TEXT NOT NULL,
  created_at TEXT NOT NULL,
  PRIMARY KEY (ats_type, question)
);`, `
CREATE TABLE IF NOT EXISTS artifacts (
  id TEXT PRIMARY KEY,
  application_id TEXT NOT NULL REFERENCES applications(id),
  kind TEXT NOT NULL,
  path TEXT NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`,
			// ---- Schema v1: indexes ----
			`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);`,
			`CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id);`,
			`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);`,
			`CREATE INDEX IF NOT EXISTS idx_artifacts_application ON artifacts(application_id);`,
			// at most one live application per job
			`
CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_live_job
ON applications(job_id)
WHERE status NOT IN ('submitted', 'skipped', 'error');`,
		}
		for _, s := range stmts {
			if _, err := tx.Exec(s); err != nil {
				return fmt.Errorf("schema v1: %w", err)
			}
		}
	}

	// ---- Schema v2: processed digest emails ----
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS emails (
  message_id TEXT PRIMARY KEY,
  subject TEXT NOT NULL DEFAULT '',
  sender TEXT NOT NULL DEFAULT '',
  received_at TEXT NOT NULL,
  processed_at TEXT NOT NULL,
  postings INTEGER NOT NULL DEFAULT 0
);`); err != nil {
		return fmt.Errorf("schema v2: %w", err)
	}

	if _, err := tx.Exec(`PRAGMA user_version = 2;`); err != nil {
		return err
	}

	return tx.Commit()
}
