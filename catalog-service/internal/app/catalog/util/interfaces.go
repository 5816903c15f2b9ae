package util

import (
	"context"
)

// ListCache интерфейс кеша страниц списков (категории, подкатегории)
// Используется для dependency injection и упрощения тестирования
type ListCache interface {
	// GetList возвращает nil, nil при промахе
	GetList(ctx context.Context, entityType, key string) ([]byte, error)
	SetList(ctx context.Context, entityType, key string, data []byte) error
	// InvalidateLists удаляет все закешированные страницы сущности
	InvalidateLists(ctx context.Context, entityType string) error
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// NoopCache используется, когда Redis отключен: всегда промах
type NoopCache struct{}

func (NoopCache) GetList(context.Context, string, string) ([]byte, error) { return nil, nil }
func (NoopCache) SetList(context.Context, string, string, []byte) error { return nil }
func (NoopCache) InvalidateLists(context.Context, string) error { return nil }
func (NoopCache) Close() error { return nil }

// NoopPublisher используется, когда Kafka отключена
type NoopPublisher struct{}

func (NoopPublisher) PublishMessage(context.Context, string, []byte) error { return nil }
func (NoopPublisher) Close() error { return nil }
