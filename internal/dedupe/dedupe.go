package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"jobgate-engine/internal/domain"
)

// PostingID hashes the normalized URL. Equal normalized URLs share an id.
func PostingID(rawURL string) string {
	key := NormalizedKey(rawURL)
	if key == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Dedupe assigns ids, canonicalizes URLs and collapses postings that share
// an id within the batch. Later duplicates only fill fields the first one
// left empty. Postings without a usable URL are dropped.
func Dedupe(in []domain.JobPosting) []domain.JobPosting {
	out := make([]domain.JobPosting, 0, len(in))
	index := map[string]int{}

	for _, p := range in {
		id := PostingID(p.URL)
		if id == "" {
			continue
		}
		p.ID = id
		p.URL = CanonicalURL(p.URL)

		i, ok := index[id]
		if !ok {
			index[id] = len(out)
			out = append(out, p)
			continue
		}
		merge(&out[i], p)
	}
	return out
}

func merge(dst *domain.JobPosting, src domain.JobPosting) {
	if strings.TrimSpace(dst.Title) == "" {
		dst.Title = src.Title
	}
	if strings.TrimSpace(dst.Company) == "" {
		dst.Company = src.Company
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if dst.ATSType == "" || dst.ATSType == domain.ATSUnknown {
		dst.ATSType = src.ATSType
	}
	if dst.ATSHint == "" {
		dst.ATSHint = src.ATSHint
	}
	if src.PostedAt != nil && (dst.PostedAt == nil || src.PostedAt.After(*dst.PostedAt)) {
		dst.PostedAt = src.PostedAt
	}
}
