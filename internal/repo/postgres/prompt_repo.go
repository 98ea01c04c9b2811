package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	promptsvc "github.com/marcucus/goldwen-backend/internal/services/prompts"
)

type PromptRepo struct {
	pool *pgxpool.Pool
}

func NewPromptRepo(pool *pgxpool.Pool) *PromptRepo {
	return &PromptRepo{pool: pool}
}

// ReplaceAnswers deletes the previous answer set and inserts the new one
// in a single transaction, so a concurrent count never sees both.
func (r *PromptRepo) ReplaceAnswers(ctx context.Context, userID int64, answers []promptsvc.Answer) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
DELETE FROM prompt_answers WHERE user_id = $1
`, userID); err != nil {
			return fmt.Errorf("delete previous prompt answers: %w", err)
		}

		for _, answer := range answers {
			if _, err := tx.Exec(ctx, `
INSERT INTO prompt_answers (user_id, prompt_id, answer, created_at)
VALUES ($1, $2, $3, NOW())
`, userID, answer.PromptID, answer.Answer); err != nil {
				return fmt.Errorf("insert prompt answer: %w", err)
			}
		}
		return nil
	})
}

func (r *PromptRepo) ListAnswers(ctx context.Context, userID int64) ([]promptsvc.StoredAnswer, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT pa.prompt_id, COALESCE(p.text, ''), pa.answer, pa.created_at
FROM prompt_answers pa
LEFT JOIN prompts p ON p.id = pa.prompt_id
WHERE pa.user_id = $1
ORDER BY pa.prompt_id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list prompt answers: %w", err)
	}
	defer rows.Close()

	answers := make([]promptsvc.StoredAnswer, 0)
	for rows.Next() {
		var answer promptsvc.StoredAnswer
		if err := rows.Scan(&answer.PromptID, &answer.Prompt, &answer.Answer, &answer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt answer: %w", err)
		}
		answers = append(answers, answer)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate prompt answers: %w", rows.Err())
	}

	return answers, nil
}

func (r *PromptRepo) CountAnswers(ctx context.Context, userID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM prompt_answers WHERE user_id = $1
`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count prompt answers: %w", err)
	}

	return count, nil
}
