package processor

import (
	"context"
	"errors"
	"testing"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStatsSource мок для StatsSource
type MockStatsSource struct {
	mock.Mock
}

func (m *MockStatsSource) IntegrityReport(ctx context.Context) (*entity.IntegrityReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.IntegrityReport), args.Error(1)
}

func TestNewCronScheduler(t *testing.T) {
	source := new(MockStatsSource)

	scheduler := NewCronScheduler(source)

	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, source, scheduler.source)
}

func TestCronScheduler_Collect_SetsGauges(t *testing.T) {
	source := new(MockStatsSource)
	source.On("IntegrityReport", mock.Anything).Return(&entity.IntegrityReport{
		Categories:          4,
		Subcategories:       9,
		Products:            120,
		OrphanSubcategories: 2,
		OrphanProducts:      7,
	}, nil)

	before := testutil.ToFloat64(metrics.CatalogStatsRuns.WithLabelValues("success"))

	NewCronScheduler(source).Collect(context.Background())

	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.CatalogEntities.WithLabelValues(entity.EntityCategory)))
	assert.Equal(t, float64(9), testutil.ToFloat64(metrics.CatalogEntities.WithLabelValues(entity.EntitySubcategory)))
	assert.Equal(t, float64(120), testutil.ToFloat64(metrics.CatalogEntities.WithLabelValues(entity.EntityProduct)))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.CatalogOrphans.WithLabelValues(entity.EntitySubcategory)))
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.CatalogOrphans.WithLabelValues(entity.EntityProduct)))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CatalogStatsRuns.WithLabelValues("success")))
	source.AssertExpectations(t)
}

func TestCronScheduler_Collect_Failure(t *testing.T) {
	source := new(MockStatsSource)
	source.On("IntegrityReport", mock.Anything).Return(nil, errors.New("mongo down"))

	before := testutil.ToFloat64(metrics.CatalogStatsRuns.WithLabelValues("failed"))

	NewCronScheduler(source).Collect(context.Background())

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CatalogStatsRuns.WithLabelValues("failed")))
}

func TestCronScheduler_Start_RunsInitialCollection(t *testing.T) {
	source := new(MockStatsSource)
	source.On("IntegrityReport", mock.Anything).Return(&entity.IntegrityReport{}, nil)

	scheduler := NewCronScheduler(source)
	err := scheduler.Start(context.Background(), "@every 1h")
	require.NoError(t, err)
	defer scheduler.Stop()

	assert.Len(t, scheduler.GetEntries(), 1)
	source.AssertNumberOfCalls(t, "IntegrityReport", 1)
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	source := new(MockStatsSource)
	scheduler := NewCronScheduler(source)

	err := scheduler.Start(context.Background(), "not a schedule")

	assert.Error(t, err)
	source.AssertNotCalled(t, "IntegrityReport", mock.Anything)
}
