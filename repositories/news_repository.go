package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mlbb-arena/arena-backend/models"
)

var (
	ErrNewsNotFound      = errors.New("news item not found")
	ErrNewsAuthorInvalid = errors.New("news author invalid")
)

type NewsRepository interface {
	Create(ctx context.Context, item *models.News) error
	GetByID(ctx context.Context, id int) (*models.News, error)
	List(ctx context.Context, category *models.NewsCategory) ([]models.News, error)
	Update(ctx context.Context, item *models.News) error
	Delete(ctx context.Context, id int) error
}

type postgresNewsRepository struct {
	db *sql.DB
}

func NewPostgresNewsRepository(db *sql.DB) NewsRepository {
	return &postgresNewsRepository{db: db}
}

func (r *postgresNewsRepository) Create(ctx context.Context, item *models.News) error {
	query := `
		INSERT INTO news (title, summary, content, category, image_key, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, published_at`

	err := r.db.QueryRowContext(ctx, query,
		item.Title,
		item.Summary,
		item.Content,
		item.Category,
		item.ImageKey,
		item.AuthorID,
	).Scan(&item.ID, &item.PublishedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrNewsAuthorInvalid
		}
		return fmt.Errorf("failed to create news item: %w", err)
	}
	return nil
}

func (r *postgresNewsRepository) GetByID(ctx context.Context, id int) (*models.News, error) {
	query := `
		SELECT
			n.id, n.title, n.summary, n.content, n.category, n.image_key, n.author_id, n.published_at,
			a.id, a.nickname, a.first_name, a.last_name
		FROM news n
		JOIN users a ON n.author_id = a.id
		WHERE n.id = $1`

	var item models.News
	var author models.User

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Title, &item.Summary, &item.Content, &item.Category,
		&item.ImageKey, &item.AuthorID, &item.PublishedAt,
		&author.ID, &author.Nickname, &author.FirstName, &author.LastName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to scan news item: %w", err)
	}

	item.Author = &author
	return &item, nil
}

func (r *postgresNewsRepository) List(ctx context.Context, category *models.NewsCategory) ([]models.News, error) {
	query := `
		SELECT id, title, summary, content, category, image_key, author_id, published_at
		FROM news`
	args := []interface{}{}

	if category != nil {
		query += ` WHERE category = $1`
		args = append(args, *category)
	}
	query += ` ORDER BY published_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	items := make([]models.News, 0)
	for rows.Next() {
		var item models.News
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Summary, &item.Content, &item.Category,
			&item.ImageKey, &item.AuthorID, &item.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresNewsRepository) Update(ctx context.Context, item *models.News) error {
	query := `
		UPDATE news SET title = $1, summary = $2, content = $3, category = $4, image_key = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		item.Title,
		item.Summary,
		item.Content,
		item.Category,
		item.ImageKey,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update news item: %w", err)
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete news item: %w", err)
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}
