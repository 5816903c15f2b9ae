package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/catalog-service/internal/app/catalog/repository"
	"pepagora/catalog-service/internal/app/catalog/util"
	"pepagora/pkg/logger"
	"pepagora/pkg/metrics"
)

// PageLimits - максимальный размер страницы для каждой сущности
type PageLimits struct {
	Categories    int
	Subcategories int
	Products      int
}

// CatalogService обрабатывает бизнес-логику каталога
// Координирует работу репозиториев, кеша списков и публикацию событий
type CatalogService struct {
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
	productRepo     repository.ProductRepository
	cache           util.ListCache
	publisher       util.MessagePublisher
	limits          PageLimits
}

// NewCatalogService создает сервис каталога с внедрением зависимостей
// nil cache / publisher заменяются на no-op реализации
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	productRepo repository.ProductRepository,
	cache util.ListCache,
	publisher util.MessagePublisher,
	limits PageLimits,
) *CatalogService {
	if cache == nil {
		cache = util.NoopCache{}
	}
	if publisher == nil {
		publisher = util.NoopPublisher{}
	}
	return &CatalogService{
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
		productRepo:     productRepo,
		cache:           cache,
		publisher:       publisher,
		limits:          limits,
	}
}

// publishEvent отправляет событие изменения в Kafka
// Ошибка только логируется: запись в хранилище уже выполнена
func (s *CatalogService) publishEvent(ctx context.Context, entityType, op, id, name, parentID string) {
	metrics.RecordCatalogWrite(entityType, strings.ToLower(op))

	event := entity.CatalogEvent{
		EventType:  strings.ToUpper(entityType) + "_" + op,
		EntityType: entityType,
		EntityID:   id,
		Name:       name,
		ParentID:   parentID,
		Timestamp:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", event.EventType).Msg("failed to marshal catalog event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, id, data); err != nil {
		logger.Warn().Err(err).
			Str("event_type", event.EventType).
			Str("entity_id", id).
			Msg("failed to publish catalog event")
	}
}

// invalidate сбрасывает закешированные страницы сущности, ошибки кеша не критичны
func (s *CatalogService) invalidate(ctx context.Context, entityType string) {
	if err := s.cache.InvalidateLists(ctx, entityType); err != nil {
		logger.Warn().Err(err).Str("entity", entityType).Msg("failed to invalidate list cache")
	}
}

// fetchPage читает страницу и общее количество по одному фильтру
func fetchPage[T any](
	ctx context.Context,
	what string,
	q entity.ListQuery,
	spec entity.QuerySpec,
	find func(context.Context, entity.QuerySpec) ([]T, error),
	count func(context.Context, entity.Filter) (int64, error),
) (*entity.Page[T], error) {
	items, err := find(ctx, spec)
	if err != nil {
		return nil, fetchFailed(what, err)
	}

	total, err := count(ctx, spec.Filter)
	if err != nil {
		return nil, fetchFailed(what, err)
	}

	return entity.NewPage(items, total, q), nil
}

// cachedPage сначала смотрит в кеш, при промахе читает хранилище и кеширует результат
// Битая запись в кеше считается промахом
func cachedPage[T any](
	ctx context.Context,
	cache util.ListCache,
	entityType string,
	q entity.ListQuery,
	load func() (*entity.Page[T], error),
) (*entity.Page[T], error) {
	key := q.CacheKey()

	data, err := cache.GetList(ctx, entityType, key)
	if err != nil {
		logger.Warn().Err(err).Str("entity", entityType).Msg("failed to read list cache")
	}
	if data != nil {
		var page entity.Page[T]
		if err := json.Unmarshal(data, &page); err == nil {
			logger.Debug().Str("entity", entityType).Str("key", key).Msg("list served from cache")
			return &page, nil
		}
		logger.Warn().Str("entity", entityType).Str("key", key).Msg("corrupted list cache entry")
	}

	page, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(page); err == nil {
		if err := cache.SetList(ctx, entityType, key, data); err != nil {
			logger.Warn().Err(err).Str("entity", entityType).Msg("failed to write list cache")
		}
	}

	return page, nil
}
