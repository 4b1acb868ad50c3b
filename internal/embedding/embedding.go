// Package embedding attaches vectors to candidates through a domain.Embedder.
package embedding

import (
	"context"
	"fmt"

	"keyrank/internal/domain"
)

// Attach prepares emb over the candidate texts and sets every candidate's
// Vector. Candidates keep a nil Vector when their embedding fails, so cosine
// similarity falls back to token overlap for them. The returned error reports
// a failed preparation or a cancelled context; per-candidate failures are
// counted in failed.
func Attach(ctx context.Context, emb domain.Embedder, cands []domain.Candidate) (failed int, err error) {
	if len(cands) == 0 {
		return 0, nil
	}
	corpus := make([]string, len(cands))
	for i := range cands {
		corpus[i] = cands[i].Text
	}
	if err := emb.Prepare(corpus); err != nil {
		return len(cands), fmt.Errorf("prepare %s embedder: %w", emb.Name(), err)
	}
	for i := range cands {
		if err := ctx.Err(); err != nil {
			return failed + len(cands) - i, err
		}
		vec, err := emb.Embed(ctx, cands[i].Text)
		if err != nil || len(vec) == 0 {
			failed++
			cands[i].Vector = nil
			continue
		}
		cands[i].Vector = vec
	}
	return failed, nil
}
