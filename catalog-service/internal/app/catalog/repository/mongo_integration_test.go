//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIntegrationTestSuite проверяет репозитории на настоящем MongoDB
// Требует запущенный MongoDB (MONGO_TEST_URI, по умолчанию localhost:27018)
type MongoIntegrationTestSuite struct {
	suite.Suite
	client        *mongo.Client
	db            *mongo.Database
	categories    CategoryRepository
	subcategories SubcategoryRepository
	products      ProductRepository
	ctx           context.Context
}

func TestMongoIntegrationSuite(t *testing.T) {
	suite.Run(t, new(MongoIntegrationTestSuite))
}

func (s *MongoIntegrationTestSuite) SetupSuite() {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27018"
	}

	s.ctx = context.Background()
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	s.Require().NoError(err, "Failed to connect to MongoDB")
	s.Require().NoError(client.Ping(ctx, nil), "MongoDB is not reachable")

	s.client = client
	s.db = client.Database(fmt.Sprintf("catalog_test_%d", time.Now().UnixNano()))
	s.Require().NoError(EnsureMongoIndexes(ctx, s.db))

	s.categories = NewMongoCategoryRepository(s.db)
	s.subcategories = NewMongoSubcategoryRepository(s.db)
	s.products = NewMongoProductRepository(s.db)
}

func (s *MongoIntegrationTestSuite) TearDownSuite() {
	_ = s.db.Drop(s.ctx)
	_ = s.client.Disconnect(s.ctx)
}

func (s *MongoIntegrationTestSuite) SetupTest() {
	for _, name := range []string{CategoriesCollection, SubcategoriesCollection, ProductsCollection} {
		_, err := s.db.Collection(name).DeleteMany(s.ctx, map[string]interface{}{})
		s.Require().NoError(err)
	}
}

func (s *MongoIntegrationTestSuite) createCategory(name string) *entity.Category {
	category := &entity.Category{Name: name, MappedChildren: []string{}}
	s.Require().NoError(s.categories.Create(s.ctx, category))
	return category
}

func (s *MongoIntegrationTestSuite) createSubcategory(name, parent string) *entity.Subcategory {
	subcategory := &entity.Subcategory{Name: name, MappedParent: parent}
	s.Require().NoError(s.subcategories.Create(s.ctx, subcategory))
	return subcategory
}

func (s *MongoIntegrationTestSuite) TestCategoryNameUnique() {
	s.createCategory("Electronics")

	err := s.categories.Create(s.ctx, &entity.Category{Name: "Electronics"})

	s.ErrorIs(err, ErrCategoryAlreadyExists)
}

func (s *MongoIntegrationTestSuite) TestSearchIsCaseInsensitiveAndLiteral() {
	s.createCategory("Phones")
	s.createCategory("Smartphones")
	s.createCategory("Laptops")
	s.createCategory("Phones (refurbished)")

	found, err := s.categories.Find(s.ctx, entity.QuerySpec{
		Filter: entity.Filter{NameContains: "PHONE"},
		Sort:   entity.Sort{Field: entity.SortByName},
	})
	s.Require().NoError(err)
	s.Len(found, 3)

	// скобки ищутся как обычные символы
	found, err = s.categories.Find(s.ctx, entity.QuerySpec{Filter: entity.Filter{NameContains: "(refurbished)"}})
	s.Require().NoError(err)
	s.Len(found, 1)

	total, err := s.categories.Count(s.ctx, entity.Filter{NameContains: "phone"})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
}

func (s *MongoIntegrationTestSuite) TestPaginationAndSort() {
	for i := 0; i < 7; i++ {
		s.createCategory(fmt.Sprintf("Category %d", i))
	}

	q := entity.ParseListQuery("2", "3", "", "name", "asc").Normalize(100)
	page, err := s.categories.Find(s.ctx, q.ToSpec())
	s.Require().NoError(err)

	s.Require().Len(page, 3)
	s.Equal("Category 3", page[0].Name)
	s.Equal("Category 5", page[2].Name)
}

func (s *MongoIntegrationTestSuite) TestConcurrentProductCreateSingleWinner() {
	category := s.createCategory("Electronics")
	subcategory := s.createSubcategory("Phones", category.ID)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.products.Create(s.ctx, &entity.Product{Name: "Pixel", MappedParent: subcategory.ID})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if err == ErrProductAlreadyExists {
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, conflicts)
}

func (s *MongoIntegrationTestSuite) TestSameProductNameInOtherSubcategory() {
	category := s.createCategory("Electronics")
	phones := s.createSubcategory("Phones", category.ID)
	tablets := s.createSubcategory("Tablets", category.ID)

	s.Require().NoError(s.products.Create(s.ctx, &entity.Product{Name: "Galaxy", MappedParent: phones.ID}))
	s.NoError(s.products.Create(s.ctx, &entity.Product{Name: "Galaxy", MappedParent: tablets.ID}))

	exists, err := s.products.ExistsByNameInSubcategory(s.ctx, phones.ID, "Galaxy")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *MongoIntegrationTestSuite) TestParentFilterAndOrphans() {
	first := s.createCategory("First")
	second := s.createCategory("Second")
	a := s.createSubcategory("A", first.ID)
	b := s.createSubcategory("B", second.ID)

	ids, err := s.subcategories.IDsByParents(s.ctx, []string{first.ID, "not-an-id"})
	s.Require().NoError(err)
	s.Equal([]string{a.ID}, ids)

	_, err = s.categories.Delete(s.ctx, second.ID)
	s.Require().NoError(err)

	orphans, err := s.subcategories.CountOrphans(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), orphans)

	_, err = s.subcategories.GetByID(s.ctx, b.ID)
	s.NoError(err, "subcategory survives parent deletion")
}
