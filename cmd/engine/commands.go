package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"jobgate-engine/internal/apply"
	"jobgate-engine/internal/config"
	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/httpapi"
	"jobgate-engine/internal/ingest"
	"jobgate-engine/internal/operator"
	"jobgate-engine/internal/scheduler"
	"jobgate-engine/internal/secrets"
)

func cmdInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	setIMAP := fs.Bool("imap-password", false, "prompt for the IMAP app password and store it in the OS keychain")
	setLLM := fs.Bool("llm-key", false, "prompt for the LLM API key and store it in the OS keychain")
	imapUser := fs.String("imap-user", "", "set email.username in the config file")
	resume := fs.String("resume", "", "set resume.default in the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	op := operator.Stdio()
	if *imapUser != "" || *resume != "" {
		if err := updateConfigFile(a, *imapUser, *resume); err != nil {
			return err
		}
		op.Notify("updated " + a.cfgPath)
	}
	profilePath := config.ResolvePath(a.dataDir, a.cfg.ProfilePath)
	wrote, err := config.EnsureProfile(profilePath)
	if err != nil {
		return err
	}
	if wrote {
		op.Notify("wrote profile template " + profilePath + "; fill it in before `run`")
	}
	for _, d := range []string{"artifacts", "resumes"} {
		if err := os.MkdirAll(config.ResolvePath(a.dataDir, d), 0o755); err != nil {
			return err
		}
	}

	if *setIMAP {
		pw, err := op.Prompt(ctx, "IMAP app password for "+a.cfg.Email.Username)
		if err != nil {
			return err
		}
		if err := secrets.SetIMAPPassword(a.cfg, pw); err != nil {
			return err
		}
		op.Notify("IMAP password stored in the keychain")
	}
	if *setLLM {
		key, err := op.Prompt(ctx, "LLM API key")
		if err != nil {
			return err
		}
		if err := secrets.SetLLMKey(a.cfg, key); err != nil {
			return err
		}
		op.Notify("LLM key stored in the keychain")
	}
	op.Notify("config " + a.cfgPath)
	return nil
}

// updateConfigFile edits the file as written, so env overrides applied at
// bootstrap are not persisted.
func updateConfigFile(a *app, imapUser, resume string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if imapUser != "" {
		cfg.Email.Username = imapUser
		a.cfg.Email.Username = imapUser
	}
	if resume != "" {
		cfg.Resume.Default = resume
		a.cfg.Resume.Default = resume
	}
	return config.SaveAtomic(a.cfgPath, cfg)
}

func cmdFetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	source := fs.String("source", "all", "where to look for postings: email, github or all")
	dryRun := fs.Bool("dry-run", false, "score and list new postings without storing anything")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validSource(*source); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	digests, listings, err := a.sources(*source)
	if err != nil {
		return err
	}
	p := a.pipeline()
	p.DryRun = *dryRun
	res, err := p.FetchAll(ctx, digests, listings...)
	if err != nil {
		return err
	}
	if *dryRun {
		rows := make([][]string, 0, len(res.Preview))
		for _, j := range res.Preview {
			rows = append(rows, []string{
				j.ID[:12], fmt.Sprintf("%.2f", j.Score), string(j.Status), clip(j.Company, 24), clip(j.Title, 40), j.URL,
			})
		}
		fmt.Println(operator.Table([]string{"JOB", "SCORE", "STATUS", "COMPANY", "TITLE", "URL"}, rows))
		operator.Stdio().Notify("dry run, nothing stored: " + res.String())
		return nil
	}
	operator.Stdio().Notify("fetch: " + res.String())
	return nil
}

func cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	serve := fs.Bool("serve", false, "also serve the status API")
	source := fs.String("source", "all", "where to look for postings: email, github or all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validSource(*source); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	digests, listings, err := a.sources(*source)
	if err != nil {
		return err
	}
	tracker := &ingest.Tracker{Pipeline: a.pipeline(), Source: digests, Listings: listings}

	if *serve {
		srv, err := a.startServer(tracker.Status)
		if err != nil {
			return err
		}
		defer shutdown(srv)
	}

	interval := time.Duration(a.cfg.Polling.EmailSeconds) * time.Second
	log.Printf("[watch] every=%s", interval)
	scheduler.Every(ctx, interval, "poll", tracker.Poll)
	return nil
}

func cmdQueue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("queue", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "max rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	apps, err := a.db.ListApplications(ctx, domain.AppQueued, *limit)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		job, err := a.db.GetPosting(ctx, app.JobID)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			app.ID, fmt.Sprintf("%.2f", job.Score), clip(job.Company, 24), clip(job.Title, 40), string(job.ATSType),
		})
	}
	fmt.Println(operator.Table([]string{"APPLICATION", "SCORE", "COMPANY", "TITLE", "ATS"}, rows))
	return nil
}

func cmdRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "max applications to process (0 = all queued)")
	serve := fs.Bool("serve", false, "serve the status API and stream this run's transitions on /events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	op := operator.Stdio()
	m, err := a.machine(op)
	if err != nil {
		return err
	}
	if *serve {
		srv, err := a.startServer(nil)
		if err != nil {
			return err
		}
		defer shutdown(srv)
	}

	go func() {
		<-ctx.Done()
		op.Notify("interrupt received: finishing the current application, then stopping")
	}()

	sum, err := a.coordinator(m).Run(ctx, *limit)
	if err != nil {
		return err
	}
	op.Notify(sum.String())
	return nil
}

func cmdStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.db.Counts(ctx)
	if err != nil {
		return err
	}
	var rows [][]string
	for _, s := range []domain.JobStatus{domain.JobDiscovered, domain.JobQueued, domain.JobFilteredOut} {
		rows = append(rows, []string{"job", string(s), strconv.Itoa(c.Jobs[string(s)])})
	}
	for _, s := range []domain.AppStatus{
		domain.AppQueued, domain.AppStarted, domain.AppFilled, domain.AppNeedsReview,
		domain.AppSubmitted, domain.AppSkipped, domain.AppError,
	} {
		rows = append(rows, []string{"application", string(s), strconv.Itoa(c.Applications[string(s)])})
	}
	rows = append(rows,
		[]string{"cache", "answers", strconv.Itoa(c.Answers)},
		[]string{"email", "digests", strconv.Itoa(c.Emails)},
	)
	fmt.Println(operator.Table([]string{"KIND", "STATUS", "COUNT"}, rows))

	runs, err := a.db.ListRuns(ctx, 5)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		var rr [][]string
		for _, r := range runs {
			rr = append(rr, []string{
				r.StartedAt.Local().Format("2006-01-02 15:04"), string(r.Status),
				strconv.Itoa(r.Processed), strconv.Itoa(r.Submitted), strconv.Itoa(r.Skipped), strconv.Itoa(r.Errored),
			})
		}
		fmt.Println(operator.Table([]string{"RUN", "STATUS", "PROCESSED", "SUBMITTED", "SKIPPED", "ERROR"}, rr))
	}
	return nil
}

func cmdReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: jobgate reset <application-or-job-id-prefix>")
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	target, err := resolveApplication(ctx, a.db, fs.Arg(0))
	if err != nil {
		return err
	}
	app, err := apply.Reset(ctx, a.db, target.ID)
	if err != nil {
		return err
	}
	operator.Stdio().Notify(fmt.Sprintf("application %s is %s", app.ID, app.Status))
	return nil
}

func cmdOpen(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	printOnly := fs.Bool("print", false, "print the URL instead of launching a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: jobgate open <job-or-application-id-prefix>")
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := resolvePosting(ctx, a.db, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("%s at %s\n%s\n", job.Title, job.Company, job.URL)
	if *printOnly {
		return nil
	}
	if err := openURL(job.URL); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

func cmdAnswers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("answers", flag.ContinueOnError)
	clearQ := fs.String("clear", "", "delete the cached answer for this question")
	ats := fs.String("ats", "", "limit -clear to one ATS (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	op := operator.Stdio()
	if *clearQ != "" {
		var at domain.ATSType
		if *ats != "" {
			at = domain.ParseATSType(strings.ToLower(*ats))
		}
		n, err := a.db.DeleteAnswer(ctx, at, *clearQ)
		if err != nil {
			return err
		}
		op.Notify(fmt.Sprintf("cleared %d cached answer(s)", n))
		return nil
	}

	qas, err := a.db.ListAnswers(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(qas))
	for _, qa := range qas {
		ans := qa.Answer
		if ans == "" {
			ans = "(blank)"
		}
		rows = append(rows, []string{string(qa.ATSType), clip(qa.Question, 60), clip(ans, 40)})
	}
	fmt.Println(operator.Table([]string{"ATS", "QUESTION", "ANSWER"}, rows))
	return nil
}

func cmdServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := a.startServer(nil)
	if err != nil {
		return err
	}
	<-ctx.Done()
	shutdown(srv)
	return nil
}

func (a *app) startServer(fetchStatus func() ingest.Status) (*http.Server, error) {
	return startServer(a.cfg.App.Port, httpapi.Deps{
		Store:       a.db,
		Hub:         a.hub,
		Config:      a.cfg,
		UserCfgPath: a.cfgPath,
		FetchStatus: fetchStatus,
	})
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
