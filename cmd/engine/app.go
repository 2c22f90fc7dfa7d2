package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"jobgate-engine/internal/adapters"
	"jobgate-engine/internal/advisor"
	"jobgate-engine/internal/apply"
	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/config"
	"jobgate-engine/internal/email"
	"jobgate-engine/internal/events"
	"jobgate-engine/internal/ingest"
	"jobgate-engine/internal/logging"
	"jobgate-engine/internal/operator"
	"jobgate-engine/internal/rank"
	"jobgate-engine/internal/runner"
	"jobgate-engine/internal/secrets"
	"jobgate-engine/internal/store"
)

// app holds what every command needs: config, store and event hub.
type app struct {
	dataDir string
	cfgPath string
	cfg     config.Config
	db      *store.DB
	hub     *events.Hub

	closeLog func() error
}

func bootstrap() (*app, error) {
	dataDir := config.DefaultDataDir()
	config.LoadDotEnv(dataDir)
	dataDir = config.DefaultDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	cfgPath := os.Getenv("JOBGATE_CONFIG")
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir, "")
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	config.ApplyEnv(&cfg)
	if cfg.App.DataDir != "" {
		dataDir = cfg.App.DataDir
	}

	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		return nil, config.Validate(cfg)
	}

	closeLog, err := logging.Setup(dataDir)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "jobgate.db")
	db, err := store.OpenAndMigrate(dbPath)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	log.Printf("[engine] data_dir=%q config=%q", dataDir, cfgPath)

	return &app{
		dataDir:  dataDir,
		cfgPath:  cfgPath,
		cfg:      cfg,
		db:       db,
		hub:      events.NewHub(),
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Printf("[engine] close db: %v", err)
	}
	_ = a.closeLog()
}

func (a *app) pipeline() *ingest.Pipeline {
	return &ingest.Pipeline{
		Store:     a.db,
		Scorer:    rank.RulesScorer{Rules: rank.RulesFromConfig(a.cfg)},
		Threshold: a.cfg.Filter.MinScore,
		Events:    a.hub,
	}
}

func (a *app) source() (*email.Source, error) {
	if a.cfg.Email.Username == "" {
		return nil, errors.New("email.username is not set; run init and edit config.yml")
	}
	pw, err := secrets.GetIMAPPassword(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("imap password: %w (run `jobgate init -imap-password`)", err)
	}
	log.Printf("[email] user=%q password=%s", a.cfg.Email.Username, logging.Mask(pw))
	return &email.Source{
		Opt:  email.OptionsFromConfig(a.cfg, pw),
		Seen: a.db.EmailSeen,
	}, nil
}

func (a *app) advisor() apply.Advisor {
	if !a.cfg.LLM.Enabled {
		return nil
	}
	key, err := secrets.GetLLMKey(a.cfg)
	if err != nil {
		log.Printf("[advisor] disabled: %v", err)
		return nil
	}
	return advisor.New(advisor.Config{
		APIKey:    key,
		BaseURL:   a.cfg.LLM.BaseURL,
		Model:     a.cfg.LLM.Model,
		MaxTokens: a.cfg.LLM.MaxTokens,
		Timeout:   time.Duration(a.cfg.LLM.TimeoutSeconds) * time.Second,
	})
}

func (a *app) machine(op *operator.Terminal) (*apply.Machine, error) {
	profilePath := config.ResolvePath(a.dataDir, a.cfg.ProfilePath)
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profilePath, err)
	}

	resumes := apply.Resumes{
		Default:  config.ResolvePath(a.dataDir, a.cfg.Resume.Default),
		Variants: map[string]string{},
	}
	for k, v := range a.cfg.Resume.Variants {
		resumes.Variants[k] = config.ResolvePath(a.dataDir, v)
	}
	if resumes.Default == "" {
		log.Printf("[apply] no default resume configured; resume uploads will be skipped")
	}

	b := a.cfg.Browser
	chrome := browser.NewChrome(browser.ChromeOptions{
		Headless: b.Headless,
		ExecPath: b.ChromePath,
		Timeout:  time.Duration(b.TimeoutSeconds) * time.Second,
		Limiter:  browser.NewHostLimiter(b.NavPerSecond, 1),
		Pause: browser.Pause{
			Min: time.Duration(b.MinWaitMS) * time.Millisecond,
			Max: time.Duration(b.MaxWaitMS) * time.Millisecond,
		},
	})

	m := &apply.Machine{
		Store:       a.db,
		Engine:      chrome,
		Adapters:    adapters.DefaultRegistry(op),
		Operator:    op,
		Events:      a.hub,
		Profile:     profile,
		Resumes:     resumes,
		ArtifactDir: filepath.Join(a.dataDir, "artifacts"),
	}
	if adv := a.advisor(); adv != nil {
		m.Advisor = adv
	}
	return m, nil
}

func (a *app) coordinator(m *apply.Machine) *runner.Coordinator {
	return &runner.Coordinator{
		Store:   a.db,
		Machine: m,
		Events:  a.hub,
		LockDir: a.dataDir,
	}
}
