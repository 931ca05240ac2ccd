package vectorstore

import (
	"context"
	"strings"

	"github.com/inletai/inlet/internal/domain"
)

var resultSanitizer = strings.NewReplacer("\n", " ", "\r", " ")

// AddPromptResult caches an LLM completion under prompt:<id>. Re-adding the
// same id overwrites the cached entry.
func (s *Store) AddPromptResult(ctx context.Context, id, result, filename, prompt string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO prompt_results (key, result, filename, prompt)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET
			result = EXCLUDED.result,
			filename = EXCLUDED.filename,
			prompt = EXCLUDED.prompt`,
		domain.PromptKey(id), result, filename, prompt,
	)
	if err != nil {
		return domain.IndexUnavailableError(err)
	}
	return nil
}

// GetPromptResults returns up to limit cached prompt results in key order.
// Result text is flattened to single-line form for listing.
func (s *Store) GetPromptResults(ctx context.Context, limit int) ([]domain.PromptResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT key, result, filename, prompt
		 FROM prompt_results
		 ORDER BY key ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, domain.IndexUnavailableError(err)
	}
	defer rows.Close()

	var results []domain.PromptResult
	for rows.Next() {
		var pr domain.PromptResult
		if err := rows.Scan(&pr.Key, &pr.Result, &pr.Filename, &pr.Prompt); err != nil {
			return nil, domain.IndexUnavailableError(err)
		}
		pr.Result = resultSanitizer.Replace(pr.Result)
		results = append(results, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IndexUnavailableError(err)
	}

	return results, nil
}

// DeletePromptResults sweeps the prompt cache. An empty prefix wipes every
// prompt:* key; content vectors are never affected.
func (s *Store) DeletePromptResults(ctx context.Context, prefix string) error {
	if prefix == "" {
		prefix = domain.PromptKeyPrefix + "*"
	}
	return s.DeleteByPattern(ctx, prefix)
}
