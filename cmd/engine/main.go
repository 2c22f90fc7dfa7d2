package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = []command{
	{"init", "init [-imap-user u] [-resume path] [-imap-password] [-llm-key]", "write config and profile templates, store secrets", cmdInit},
	{"fetch", "fetch [-source email|github|all] [-dry-run]", "pull new digests and listings, score and queue postings", cmdFetch},
	{"watch", "watch [-source S] [-serve]", "fetch on the polling interval until interrupted", cmdWatch},
	{"queue", "queue [-limit N]", "list queued applications in run order", cmdQueue},
	{"run", "run [-limit N] [-serve]", "work through queued applications one at a time", cmdRun},
	{"status", "status", "counts by status and recent runs", cmdStatus},
	{"open", "open [-print] <id-prefix>", "open a posting's URL by job or application id prefix", cmdOpen},
	{"reset", "reset <id-prefix>", "re-queue an errored, skipped or stuck application", cmdReset},
	{"answers", "answers [-clear QUESTION] [-ats ATS]", "list or clear cached question answers", cmdAnswers},
	{"serve", "serve", "read-only HTTP status API (live events need run -serve or watch -serve)", cmdServe},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: jobgate <command> [flags]\n\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-46s %s\n", c.usage, c.summary)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "-h" || name == "--help" || name == "help" {
		usage()
		return
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ctx.Done()
			// a second signal kills the process
			stop()
		}()
		err := c.run(ctx, os.Args[2:])
		stop()
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if err != nil {
			log.Printf("[%s] %v", name, err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}
