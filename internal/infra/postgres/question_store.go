package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pathfinder-service/internal/domain"
)

const selectColumns = `SELECT id, type, question, options, correct_index, difficulty, block, created_at, updated_at FROM questions`

// QuestionStore keeps questions in Postgres with options as JSONB.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) ListItems(ctx context.Context, block domain.Block) ([]domain.Item, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE block=$1 ORDER BY difficulty, id`, string(block))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return collect(rows)
}

func (s *QuestionStore) ListAll(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY block, difficulty, id`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return collect(rows)
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Item, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, selectColumns+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("get question: %w", err)
	}
	return item, nil
}

func (s *QuestionStore) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	options, err := encodeOptions(item.Options)
	if err != nil {
		return domain.Item{}, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO questions (id, type, question, options, correct_index, difficulty, block, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		item.ID, string(item.Type), item.Prompt, options, item.CorrectIndex, item.Difficulty, string(item.Block), item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return domain.Item{}, fmt.Errorf("create question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Item{}, domain.ErrItemExists
	}
	return item, nil
}

func (s *QuestionStore) Update(ctx context.Context, item domain.Item) (domain.Item, error) {
	options, err := encodeOptions(item.Options)
	if err != nil {
		return domain.Item{}, err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET type=$2, question=$3, options=$4, correct_index=$5, difficulty=$6, block=$7, updated_at=$8
		WHERE id=$1`,
		item.ID, string(item.Type), item.Prompt, options, item.CorrectIndex, item.Difficulty, string(item.Block), item.UpdatedAt)
	if err != nil {
		return domain.Item{}, fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]domain.Item, error) {
	defer rows.Close()
	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (domain.Item, error) {
	var (
		item      domain.Item
		itemType  string
		block     string
		rawOption []byte
	)
	if err := row.Scan(&item.ID, &itemType, &item.Prompt, &rawOption, &item.CorrectIndex, &item.Difficulty, &block, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return domain.Item{}, err
	}
	item.Type = domain.ItemType(itemType)
	item.Block = domain.Block(block)
	if len(rawOption) > 0 {
		if err := json.Unmarshal(rawOption, &item.Options); err != nil {
			return domain.Item{}, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	return item, nil
}

func encodeOptions(options []string) ([]byte, error) {
	if len(options) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	return raw, nil
}
