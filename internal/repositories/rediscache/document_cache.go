// Package rediscache decorates an ExamDocumentRepository with Redis caching.
// Cache trouble never fails a request; the decorator falls through to the
// underlying source.
package rediscache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tetex-tech/exam-service/internal/cache"
	"github.com/tetex-tech/exam-service/internal/models"
	"github.com/tetex-tech/exam-service/internal/repositories"
)

type cachedDocumentRepository struct {
	source       repositories.ExamDocumentRepository
	questions    *cache.CacheHelper
	answerKeys   *cache.CacheHelper
	logger       *slog.Logger
	questionsTTL cache.CacheConfig
	answersTTL   cache.CacheConfig
}

// New wraps source with a Redis cache. A nil client disables caching but
// keeps the decorator functional.
func New(source repositories.ExamDocumentRepository, client *redis.Client, logger *slog.Logger) repositories.ExamDocumentRepository {
	return &cachedDocumentRepository{
		source:       source,
		questions:    cache.NewCacheHelper(client, cache.QuestionDocCacheConfig.Prefix),
		answerKeys:   cache.NewCacheHelper(client, cache.AnswerKeyCacheConfig.Prefix),
		logger:       logger,
		questionsTTL: cache.QuestionDocCacheConfig,
		answersTTL:   cache.AnswerKeyCacheConfig,
	}
}

func (r *cachedDocumentRepository) GetQuestions(ctx context.Context, examID string) (*models.QuestionDocument, error) {
	var doc models.QuestionDocument
	if err := r.questions.Get(ctx, examID, &doc); err == nil {
		return &doc, nil
	} else if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		r.logger.Warn("Question document cache read failed", "exam_id", examID, "error", err)
	}

	fetched, err := r.source.GetQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := r.questions.Set(ctx, examID, fetched, r.questionsTTL.TTL); err != nil {
		r.logger.Warn("Question document cache write failed", "exam_id", examID, "error", err)
	}
	return fetched, nil
}

func (r *cachedDocumentRepository) GetAnswerKey(ctx context.Context, examID string) (*models.AnswerKeyDocument, error) {
	var doc models.AnswerKeyDocument
	if err := r.answerKeys.Get(ctx, examID, &doc); err == nil {
		return &doc, nil
	} else if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		r.logger.Warn("Answer key cache read failed", "exam_id", examID, "error", err)
	}

	fetched, err := r.source.GetAnswerKey(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := r.answerKeys.Set(ctx, examID, fetched, r.answersTTL.TTL); err != nil {
		r.logger.Warn("Answer key cache write failed", "exam_id", examID, "error", err)
	}
	return fetched, nil
}
