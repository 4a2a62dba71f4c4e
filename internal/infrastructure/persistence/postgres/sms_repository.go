package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hromada-tools/backoffice/internal/domain"
)

type SmsTemplateRepository struct {
	db *pgxpool.Pool
}

func NewSmsTemplateRepository(db *pgxpool.Pool) *SmsTemplateRepository {
	return &SmsTemplateRepository{db: db}
}

func (r *SmsTemplateRepository) List(ctx context.Context) ([]domain.SmsTemplate, error) {
	query := `
		SELECT id, name, text, created_at, updated_at
		FROM sms.templates
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sms templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.SmsTemplate
	for rows.Next() {
		var template domain.SmsTemplate
		if err := scanTemplate(rows, &template); err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}

	return templates, rows.Err()
}

func (r *SmsTemplateRepository) FindByID(ctx context.Context, id int64) (*domain.SmsTemplate, error) {
	query := `
		SELECT id, name, text, created_at, updated_at
		FROM sms.templates
		WHERE id = $1
	`

	var template domain.SmsTemplate
	err := scanTemplate(r.db.QueryRow(ctx, query, id), &template)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *SmsTemplateRepository) Create(ctx context.Context, name, text string) (*domain.SmsTemplate, error) {
	query := `
		INSERT INTO sms.templates (name, text, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, text, created_at, updated_at
	`

	var template domain.SmsTemplate
	if err := scanTemplate(r.db.QueryRow(ctx, query, name, text), &template); err != nil {
		return nil, fmt.Errorf("failed to create sms template: %w", err)
	}
	return &template, nil
}

func (r *SmsTemplateRepository) Update(ctx context.Context, id int64, name, text string) (*domain.SmsTemplate, error) {
	query := `
		UPDATE sms.templates
		SET name = $2, text = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, text, created_at, updated_at
	`

	var template domain.SmsTemplate
	err := scanTemplate(r.db.QueryRow(ctx, query, id, name, text), &template)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update sms template: %w", err)
	}
	return &template, nil
}

func (r *SmsTemplateRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sms.templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sms template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row, template *domain.SmsTemplate) error {
	return row.Scan(
		&template.ID,
		&template.Name,
		&template.Text,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
}
