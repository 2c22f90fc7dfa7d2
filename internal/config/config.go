// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the additive scoring knobs. Each is a contribution in [0,1];
// the final score is capped at 1.0.
type Weights struct {
	Keyword      float64 `yaml:"keyword"`
	KeywordExtra float64 `yaml:"keyword_extra"`
	KeywordCap   float64 `yaml:"keyword_cap"`
	ATS          float64 `yaml:"ats"`
	Location     float64 `yaml:"location"`
	Recency      float64 `yaml:"recency"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Polling struct {
		EmailSeconds int `yaml:"email_seconds"`
	} `yaml:"polling"`

	Email struct {
		IMAPHost         string   `yaml:"imap_host"`
		IMAPPort         int      `yaml:"imap_port"`
		Username         string   `yaml:"username"`
		Mailbox          string   `yaml:"mailbox"`
		SenderFilter     []string `yaml:"sender_filter"`
		SearchSubjectAny []string `yaml:"search_subject_any"`
		LookbackDays     int      `yaml:"lookback_days"`
		MaxResults       int      `yaml:"max_results"`
	} `yaml:"email"`

	GitHub struct {
		// ReadmeURL is a raw README holding a Company | Role | Location |
		// Application | Age listings table.
		ReadmeURL string `yaml:"readme_url"`
	} `yaml:"github"`

	Filter struct {
		MinScore              float64  `yaml:"min_score"`
		TitleKeywords         []string `yaml:"title_keywords"`
		PreferredATS          []string `yaml:"preferred_ats"`
		SkipATS               []string `yaml:"skip_ats"`
		MaxAgeDays            int      `yaml:"max_age_days"`
		PreferredLocations    []string `yaml:"preferred_locations"`
		ExcludedLocations     []string `yaml:"excluded_locations"`
		RequiresSponsorshipOK bool     `yaml:"requires_sponsorship_ok"`
		Weights               Weights  `yaml:"weights"`
	} `yaml:"filter"`

	Browser struct {
		Headless       bool    `yaml:"headless"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		NavPerSecond   float64 `yaml:"nav_per_second"`
		MinWaitMS      int     `yaml:"min_wait_ms"`
		MaxWaitMS      int     `yaml:"max_wait_ms"`
		ChromePath     string  `yaml:"chrome_path"`
	} `yaml:"browser"`

	LLM struct {
		Enabled        bool   `yaml:"enabled"`
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		MaxTokens      int    `yaml:"max_tokens"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		// APIKey is filled from the keychain or env, never from the file.
		APIKey string `yaml:"-"`
	} `yaml:"llm"`

	Resume struct {
		Default  string            `yaml:"default"`
		Variants map[string]string `yaml:"variants"`
	} `yaml:"resume"`

	ProfilePath string `yaml:"profile_path"`
}

// Default returns the configuration written on first run.
func Default() Config {
	var c Config
	c.App.Port = 38471
	c.Polling.EmailSeconds = 900

	c.Email.IMAPHost = "imap.gmail.com"
	c.Email.IMAPPort = 993
	c.Email.Mailbox = "INBOX"
	c.Email.SearchSubjectAny = []string{"internship", "new grad", "jobs for you"}
	c.Email.LookbackDays = 7
	c.Email.MaxResults = 50

	c.GitHub.ReadmeURL = "https://raw.githubusercontent.com/SimplifyJobs/Summer2026-Internships/dev/README.md"

	c.Filter.MinScore = 0.30
	c.Filter.TitleKeywords = []string{
		"intern", "internship", "swe", "software engineer", "backend", "platform",
		"infra", "infrastructure", "data", "distributed", "database", "systems",
	}
	c.Filter.PreferredATS = []string{"ashby", "greenhouse", "lever"}
	c.Filter.MaxAgeDays = 30
	c.Filter.PreferredLocations = []string{"remote"}
	c.Filter.RequiresSponsorshipOK = true
	c.Filter.Weights = Weights{
		Keyword:      0.35,
		KeywordExtra: 0.05,
		KeywordCap:   0.50,
		ATS:          0.10,
		Location:     0.05,
		Recency:      0.05,
	}

	c.Browser.Headless = false
	c.Browser.TimeoutSeconds = 30
	c.Browser.NavPerSecond = 0.5
	c.Browser.MinWaitMS = 300
	c.Browser.MaxWaitMS = 1200

	c.LLM.Provider = "openai"
	c.LLM.Model = "gpt-4o-mini"
	c.LLM.MaxTokens = 300
	c.LLM.TimeoutSeconds = 20

	c.ProfilePath = "profile.json"
	return c
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
