// Package ingest turns raw digests and listing pages into persisted, scored
// postings and queues applications for the ones that pass the threshold.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobgate-engine/internal/dedupe"
	"jobgate-engine/internal/digest"
	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/events"
	"jobgate-engine/internal/rank"

	"golang.org/x/sync/errgroup"
)

type Store interface {
	UpsertPosting(ctx context.Context, p domain.JobPosting) (bool, error)
	PostingExists(ctx context.Context, id string) (bool, error)
	MarkEmailProcessed(ctx context.Context, dg domain.Digest, postings int) error
	EnqueueApplications(ctx context.Context, resumeVariant string) (int, error)
}

// Source yields digests not yet processed.
type Source interface {
	FetchNewDigests(ctx context.Context) ([]domain.Digest, error)
}

// ListingSource yields posting drafts from a listing page. Drafts need no
// id; Dedupe assigns one.
type ListingSource interface {
	Name() string
	FetchPostings(ctx context.Context) ([]domain.JobPosting, error)
}

type Pipeline struct {
	Store         Store
	Scorer        rank.Scorer
	Threshold     float64
	ResumeVariant string
	Events        events.Publisher
	// Parallel caps concurrent digest parsing; 0 means 4.
	Parallel int
	Now      func() time.Time
	// DryRun scores everything but writes nothing. New postings are
	// collected in Result.Preview.
	DryRun bool
}

type Result struct {
	Digests  int `json:"digests"`
	Listings int `json:"listings"`
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Queued   int `json:"queued"`
	Filtered int `json:"filtered"`
	Enqueued int `json:"enqueued"`

	Preview []domain.JobPosting `json:"-"`
}

func (r Result) String() string {
	return fmt.Sprintf("digests=%d listings=%d parsed=%d inserted=%d updated=%d queued=%d filtered=%d enqueued=%d",
		r.Digests, r.Listings, r.Parsed, r.Inserted, r.Updated, r.Queued, r.Filtered, r.Enqueued)
}

// Add folds o into r.
func (r *Result) Add(o Result) {
	r.Digests += o.Digests
	r.Listings += o.Listings
	r.Parsed += o.Parsed
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Queued += o.Queued
	r.Filtered += o.Filtered
	r.Enqueued += o.Enqueued
	r.Preview = append(r.Preview, o.Preview...)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// Ingest parses digests in parallel, then scores and stores their postings
// in digest order. Re-ingesting the same digest never adds rows.
func (p *Pipeline) Ingest(ctx context.Context, digests []domain.Digest) (Result, error) {
	res := Result{Digests: len(digests)}

	parsed := make([][]domain.JobPosting, len(digests))
	var g errgroup.Group
	n := p.Parallel
	if n <= 0 {
		n = 4
	}
	g.SetLimit(n)
	for i, dg := range digests {
		g.Go(func() error {
			parsed[i] = dedupe.Dedupe(digest.ParseAll(dg.HTML, digest.Options{
				ReceivedAt:  dg.ReceivedAt,
				SourceEmail: dg.MessageID,
			}))
			return nil
		})
	}
	_ = g.Wait()

	asOf := p.now()
	for i, dg := range digests {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		posts := parsed[i]
		if err := p.commit(ctx, posts, asOf, &res); err != nil {
			return res, fmt.Errorf("digest %s: %w", dg.MessageID, err)
		}
		if dg.MessageID != "" && !p.DryRun {
			if err := p.Store.MarkEmailProcessed(ctx, dg, len(posts)); err != nil {
				return res, err
			}
		}
		log.Printf("[ingest] digest=%q subject=%q postings=%d", dg.MessageID, dg.Subject, len(posts))
		if p.Events != nil && !p.DryRun {
			p.Events.Emit(events.TypeDigestIngest, map[string]any{
				"message_id": dg.MessageID, "postings": len(posts),
			})
		}
	}

	return p.finish(ctx, res)
}

// IngestListings runs drafts from a listing source through the same
// dedupe, score and store path as digest postings.
func (p *Pipeline) IngestListings(ctx context.Context, source string, drafts []domain.JobPosting) (Result, error) {
	res := Result{Listings: len(drafts)}
	posts := dedupe.Dedupe(drafts)
	if err := p.commit(ctx, posts, p.now(), &res); err != nil {
		return res, fmt.Errorf("listings %s: %w", source, err)
	}
	log.Printf("[ingest] source=%q drafts=%d postings=%d", source, len(drafts), len(posts))
	if p.Events != nil && !p.DryRun {
		p.Events.Emit(events.TypeListingIngest, map[string]any{
			"source": source, "postings": len(posts),
		})
	}
	return p.finish(ctx, res)
}

func (p *Pipeline) commit(ctx context.Context, posts []domain.JobPosting, asOf time.Time, res *Result) error {
	for j := range posts {
		job := &posts[j]
		job.DiscoveredAt = asOf
		rank.Apply(p.Scorer, job, p.Threshold, asOf)

		var inserted bool
		var err error
		if p.DryRun {
			var exists bool
			exists, err = p.Store.PostingExists(ctx, job.ID)
			inserted = !exists
		} else {
			inserted, err = p.Store.UpsertPosting(ctx, *job)
		}
		if err != nil {
			return err
		}
		res.Parsed++
		if inserted {
			res.Inserted++
			if p.DryRun {
				res.Preview = append(res.Preview, *job)
			}
		} else {
			res.Updated++
		}
		if job.Status == domain.JobQueued {
			res.Queued++
		} else {
			res.Filtered++
		}
	}
	return nil
}

func (p *Pipeline) finish(ctx context.Context, res Result) (Result, error) {
	if p.DryRun {
		log.Printf("[ingest] dry-run %s", res)
		return res, nil
	}
	enq, err := p.Store.EnqueueApplications(ctx, p.ResumeVariant)
	if err != nil {
		return res, err
	}
	res.Enqueued = enq
	log.Printf("[ingest] ok %s", res)
	return res, nil
}

// Fetch pulls new digests from src and ingests them.
func (p *Pipeline) Fetch(ctx context.Context, src Source) (Result, error) {
	digests, err := src.FetchNewDigests(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch digests: %w", err)
	}
	if len(digests) == 0 {
		log.Printf("[ingest] no new digests")
		return Result{}, nil
	}
	return p.Ingest(ctx, digests)
}

// FetchListings pulls drafts from src and ingests them.
func (p *Pipeline) FetchListings(ctx context.Context, src ListingSource) (Result, error) {
	drafts, err := src.FetchPostings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}
	return p.IngestListings(ctx, src.Name(), drafts)
}

// FetchAll runs the digest source (when set) and then every listing
// source. It stops at the first error and returns what was done so far.
func (p *Pipeline) FetchAll(ctx context.Context, src Source, listings ...ListingSource) (Result, error) {
	var total Result
	if src != nil {
		res, err := p.Fetch(ctx, src)
		total.Add(res)
		if err != nil {
			return total, err
		}
	}
	for _, ls := range listings {
		res, err := p.FetchListings(ctx, ls)
		total.Add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
