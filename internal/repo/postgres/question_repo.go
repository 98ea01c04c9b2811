package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	personalitysvc "github.com/marcucus/goldwen-backend/internal/services/personality"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func (r *QuestionRepo) ListActiveQuestions(ctx context.Context) ([]personalitysvc.Question, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, text, is_active, is_required
FROM personality_questions
WHERE is_active
ORDER BY id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list active questions: %w", err)
	}
	defer rows.Close()

	questions := make([]personalitysvc.Question, 0)
	for rows.Next() {
		var question personalitysvc.Question
		if err := rows.Scan(&question.ID, &question.Text, &question.IsActive, &question.IsRequired); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate questions: %w", rows.Err())
	}

	return questions, nil
}

func (r *QuestionRepo) ReplaceAnswers(ctx context.Context, userID int64, answers []personalitysvc.Answer) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
DELETE FROM personality_answers WHERE user_id = $1
`, userID); err != nil {
			return fmt.Errorf("delete previous questionnaire answers: %w", err)
		}

		for _, answer := range answers {
			if _, err := tx.Exec(ctx, `
INSERT INTO personality_answers (user_id, question_id, answer, created_at)
VALUES ($1, $2, $3, NOW())
`, userID, answer.QuestionID, answer.Answer); err != nil {
				return fmt.Errorf("insert questionnaire answer: %w", err)
			}
		}
		return nil
	})
}

func (r *QuestionRepo) ListAnswers(ctx context.Context, userID int64) ([]personalitysvc.StoredAnswer, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT pa.question_id, COALESCE(q.text, ''), pa.answer, pa.created_at
FROM personality_answers pa
LEFT JOIN personality_questions q ON q.id = pa.question_id
WHERE pa.user_id = $1
ORDER BY pa.question_id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaire answers: %w", err)
	}
	defer rows.Close()

	answers := make([]personalitysvc.StoredAnswer, 0)
	for rows.Next() {
		var answer personalitysvc.StoredAnswer
		if err := rows.Scan(&answer.QuestionID, &answer.Question, &answer.Answer, &answer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan questionnaire answer: %w", err)
		}
		answers = append(answers, answer)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate questionnaire answers: %w", rows.Err())
	}

	return answers, nil
}

// CountRequiredActive is queried live on every evaluation so that adding
// or retiring a required question takes effect without a migration.
func (r *QuestionRepo) CountRequiredActive(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM personality_questions WHERE is_active AND is_required
`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count required questions: %w", err)
	}

	return count, nil
}

// CountAnswers only counts answers to questions that are still active and
// required, so a retired question cannot keep satisfying the requirement.
func (r *QuestionRepo) CountAnswers(ctx context.Context, userID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM personality_answers pa
JOIN personality_questions q ON q.id = pa.question_id
WHERE pa.user_id = $1 AND q.is_active AND q.is_required
`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questionnaire answers: %w", err)
	}

	return count, nil
}
