package apply

import (
	"context"
	"fmt"
	"log"
	"sync"

	"jobgate-engine/internal/adapters"
	"jobgate-engine/internal/domain"
)

type AnswerStore interface {
	GetAnswer(ctx context.Context, ats domain.ATSType, question string) (string, bool, error)
	PutAnswer(ctx context.Context, ats domain.ATSType, question, answer string) error
}

type Asker interface {
	Ask(ctx context.Context, ats domain.ATSType, question string) (string, error)
}

// CachedResolver is get-or-ask-then-put over the question cache. An empty
// answer is cached too, so a question is asked at most once per store.
type CachedResolver struct {
	Answers AnswerStore
	Asker   Asker

	mu  sync.Mutex
	run map[string]string
}

func NewResolver(answers AnswerStore, asker Asker) *CachedResolver {
	return &CachedResolver{Answers: answers, Asker: asker, run: map[string]string{}}
}

func (r *CachedResolver) Resolve(ctx context.Context, ats domain.ATSType, question string) (string, adapters.FieldOutcome, error) {
	// one prompt at a time, and a concurrent duplicate waits for the first
	r.mu.Lock()
	defer r.mu.Unlock()

	q := domain.NormalizeQuestion(question)
	key := string(ats) + "\x00" + q
	if v, ok := r.run[key]; ok {
		return v, adapters.FromCache, nil
	}

	v, ok, err := r.Answers.GetAnswer(ctx, ats, q)
	if err != nil {
		return "", "", err
	}
	if ok {
		r.run[key] = v
		return v, adapters.FromCache, nil
	}

	ans, err := r.Asker.Ask(ctx, ats, question)
	if err != nil {
		return "", "", fmt.Errorf("ask operator: %w", err)
	}
	if err := r.Answers.PutAnswer(ctx, ats, q, ans); err != nil {
		return "", "", err
	}
	r.run[key] = ans
	log.Printf("[apply] cached answer ats=%s question=%q", ats, q)
	return ans, adapters.AskedInteractively, nil
}
