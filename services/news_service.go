package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/repositories"
	"github.com/mlbb-arena/arena-backend/storage"
)

type CreateNewsInput struct {
	Title    string              `json:"title"`
	Summary  string              `json:"summary"`
	Content  string              `json:"content"`
	Category models.NewsCategory `json:"category"`
}

type UpdateNewsInput struct {
	Title    *string              `json:"title"`
	Summary  *string              `json:"summary"`
	Content  *string              `json:"content"`
	Category *models.NewsCategory `json:"category"`
}

type NewsService interface {
	CreateNews(ctx context.Context, authorID int, input CreateNewsInput) (*models.News, error)
	GetNews(ctx context.Context, id int) (*models.News, error)
	ListNews(ctx context.Context, category *models.NewsCategory) ([]models.News, error)
	UpdateNews(ctx context.Context, id int, input UpdateNewsInput) (*models.News, error)
	UploadImage(ctx context.Context, id int, contentType string, file io.Reader) (*models.News, error)
	DeleteNews(ctx context.Context, id int) error
}

type newsService struct {
	newsRepo repositories.NewsRepository
	uploader storage.FileUploader
}

func NewNewsService(newsRepo repositories.NewsRepository, uploader storage.FileUploader) NewsService {
	return &newsService{newsRepo: newsRepo, uploader: uploader}
}

func (s *newsService) CreateNews(ctx context.Context, authorID int, input CreateNewsInput) (*models.News, error) {
	if input.Title == "" {
		return nil, ErrNewsTitleRequired
	}
	if !input.Category.Valid() {
		return nil, ErrNewsInvalidCategory
	}

	item := &models.News{
		Title:    input.Title,
		Summary:  input.Summary,
		Content:  input.Content,
		Category: input.Category,
		AuthorID: authorID,
	}
	if err := s.newsRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create news item: %w", err)
	}
	return s.GetNews(ctx, item.ID)
}

func (s *newsService) GetNews(ctx context.Context, id int) (*models.News, error) {
	item, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to get news item %d: %w", id, err)
	}
	s.decorate(item)
	return item, nil
}

func (s *newsService) ListNews(ctx context.Context, category *models.NewsCategory) ([]models.News, error) {
	if category != nil && !category.Valid() {
		return nil, ErrNewsInvalidCategory
	}
	items, err := s.newsRepo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items, nil
}

func (s *newsService) UpdateNews(ctx context.Context, id int, input UpdateNewsInput) (*models.News, error) {
	item, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to get news item %d: %w", id, err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrNewsTitleRequired
		}
		item.Title = *input.Title
	}
	if input.Summary != nil {
		item.Summary = *input.Summary
	}
	if input.Content != nil {
		item.Content = *input.Content
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrNewsInvalidCategory
		}
		item.Category = *input.Category
	}

	if err := s.newsRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update news item %d: %w", id, err)
	}
	return s.GetNews(ctx, id)
}

func (s *newsService) UploadImage(ctx context.Context, id int, contentType string, file io.Reader) (*models.News, error) {
	item, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to get news item %d: %w", id, err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("news/%d/%s%s", id, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload news image: %w", err)
	}

	oldKey := item.ImageKey
	item.ImageKey = &result.Key
	if err := s.newsRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to store news image key: %w", err)
	}
	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}
	return s.GetNews(ctx, id)
}

func (s *newsService) DeleteNews(ctx context.Context, id int) error {
	item, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return ErrNewsNotFound
		}
		return fmt.Errorf("failed to get news item %d: %w", id, err)
	}

	if err := s.newsRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return ErrNewsNotFound
		}
		return fmt.Errorf("failed to delete news item %d: %w", id, err)
	}

	if item.ImageKey != nil && *item.ImageKey != "" {
		_ = s.uploader.Delete(ctx, *item.ImageKey)
	}
	return nil
}

func (s *newsService) decorate(item *models.News) {
	populateNewsImageURL(item, s.uploader)
	if item.Author != nil {
		populateUserDetails(item.Author, s.uploader)
	}
}
