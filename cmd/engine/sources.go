package main

import (
	"fmt"
	"log"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/ingest"
	"jobgate-engine/internal/readme"
)

var sourceNames = []string{"email", "github", "all"}

func validSource(name string) error {
	for _, s := range sourceNames {
		if s == name {
			return nil
		}
	}
	return fmt.Errorf("unknown source %q (want one of %v)", name, sourceNames)
}

// sources builds what fetch and watch poll. With "all", a mailbox that is
// not configured yet is skipped instead of failing the whole fetch.
func (a *app) sources(name string) (ingest.Source, []ingest.ListingSource, error) {
	if err := validSource(name); err != nil {
		return nil, nil, err
	}
	var digests ingest.Source
	var listings []ingest.ListingSource

	if name == "email" || name == "all" {
		src, err := a.source()
		switch {
		case err == nil:
			digests = src
		case name == "all":
			log.Printf("[fetch] email skipped: %v", err)
		default:
			return nil, nil, err
		}
	}
	if name == "github" || name == "all" {
		listings = append(listings, readme.New(a.cfg.GitHub.ReadmeURL, browser.NewHostLimiter(1, 1)))
	}
	return digests, listings, nil
}
