package processor

import (
	"context"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/pkg/logger"
	"pepagora/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// StatsSource - источник сводки по каталогу
type StatsSource interface {
	IntegrityReport(ctx context.Context) (*entity.IntegrityReport, error)
}

// CronScheduler периодически собирает статистику каталога в gauges Prometheus
type CronScheduler struct {
	cron    *cron.Cron
	source  StatsSource
	timeout time.Duration
}

func NewCronScheduler(source StatsSource) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(printfLogger{})))

	return &CronScheduler{
		cron:    c,
		source:  source,
		timeout: 30 * time.Second,
	}
}

// printfLogger направляет служебные сообщения cron в общий логгер
type printfLogger struct{}

func (printfLogger) Printf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Start регистрирует задачу по расписанию (cron выражение или @every 5m),
// сразу выполняет первый сбор и запускает планировщик
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting catalog stats scheduler")

	if _, err := s.cron.AddFunc(schedule, func() { s.Collect(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.Collect(ctx)

	return nil
}

// Collect один раз собирает сводку и обновляет метрики
// Ошибка хранилища только логируется: следующий запуск повторит попытку
func (s *CronScheduler) Collect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.source.IntegrityReport(ctx)
	if err != nil {
		metrics.CatalogStatsRuns.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Msg("Failed to collect catalog stats")
		return
	}

	metrics.CatalogEntities.WithLabelValues(entity.EntityCategory).Set(float64(report.Categories))
	metrics.CatalogEntities.WithLabelValues(entity.EntitySubcategory).Set(float64(report.Subcategories))
	metrics.CatalogEntities.WithLabelValues(entity.EntityProduct).Set(float64(report.Products))
	metrics.CatalogOrphans.WithLabelValues(entity.EntitySubcategory).Set(float64(report.OrphanSubcategories))
	metrics.CatalogOrphans.WithLabelValues(entity.EntityProduct).Set(float64(report.OrphanProducts))
	metrics.CatalogStatsRuns.WithLabelValues("success").Inc()

	event := logger.Info()
	if report.OrphanSubcategories > 0 || report.OrphanProducts > 0 {
		event = logger.Warn()
	}
	event.
		Int64("categories", report.Categories).
		Int64("subcategories", report.Subcategories).
		Int64("products", report.Products).
		Int64("orphan_subcategories", report.OrphanSubcategories).
		Int64("orphan_products", report.OrphanProducts).
		Msg("Catalog stats collected")
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping catalog stats scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Catalog stats scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
