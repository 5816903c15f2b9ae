package metrics

import (
	"time"
)

// DbOperation тип операции с хранилищем
type DbOperation string

const (
	DbOpSelect    DbOperation = "select"
	DbOpCount     DbOperation = "count"
	DbOpInsert    DbOperation = "insert"
	DbOpUpdate    DbOperation = "update"
	DbOpDelete    DbOperation = "delete"
	DbOpAggregate DbOperation = "aggregate"
)

// DbTimer замеряет длительность одного запроса к хранилищу
type DbTimer struct {
	backend    string
	operation  DbOperation
	collection string
	start      time.Time
}

func NewDbTimer(backend string, op DbOperation, collection string) *DbTimer {
	return &DbTimer{
		backend:    backend,
		operation:  op,
		collection: collection,
		start:      time.Now(),
	}
}

// Observe записывает длительность и, если err != nil, счётчик ошибок
// Возвращает err без изменений, чтобы использовать в return
func (dt *DbTimer) Observe(err error) error {
	DbQueryDuration.WithLabelValues(dt.backend, string(dt.operation), dt.collection).
		Observe(time.Since(dt.start).Seconds())
	if err != nil {
		DbErrors.WithLabelValues(dt.backend, string(dt.operation), dt.collection).Inc()
	}
	return err
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service, op string) {
	RedisErrors.WithLabelValues(service, op).Inc()
}

// KafkaProduceTimer замеряет отправку одного сообщения
type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	KafkaMessagesProduced.WithLabelValues(kt.service, kt.topic).Inc()
	KafkaProduceDuration.WithLabelValues(kt.service, kt.topic).Observe(time.Since(kt.start).Seconds())
}

func (kt *KafkaProduceTimer) Error() {
	KafkaErrors.WithLabelValues(kt.service, kt.topic, "produce").Inc()
}

func RecordCatalogWrite(entity, operation string) {
	CatalogWrites.WithLabelValues(entity, operation).Inc()
}

func RecordCatalogConflict(entity string) {
	CatalogConflicts.WithLabelValues(entity).Inc()
}
