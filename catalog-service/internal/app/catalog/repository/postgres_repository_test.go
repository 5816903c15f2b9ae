package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresRepositoryTestSuite тестовый suite для gorm репозиториев
type PostgresRepositoryTestSuite struct {
	suite.Suite
	db              *gorm.DB
	mock            sqlmock.Sqlmock
	sqlDB           *sql.DB
	categoryRepo    CategoryRepository
	subcategoryRepo SubcategoryRepository
	productRepo     ProductRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositoryTestSuite))
}

func (s *PostgresRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.categoryRepo = NewPostgresCategoryRepository(s.db)
	s.subcategoryRepo = NewPostgresSubcategoryRepository(s.db)
	s.productRepo = NewPostgresProductRepository(s.db)
}

func (s *PostgresRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

var categoryColumns = []string{
	"id", "name", "unique_id", "live_url", "meta_title", "meta_keyword", "meta_description", "image_url",
	"mapped_children", "paragraph", "links", "created_at", "updated_at",
}

func categoryRow(rows *sqlmock.Rows, id, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, name, "uid", "", "title", "", "", "", `["c2"]`, "text", `[{"text":"Docs","url":"https://example.com"}]`, now, now)
}

// ===================== Categories =====================

func (s *PostgresRepositoryTestSuite) TestCategoryCreate_Success() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO "categories"`).WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	category := &entity.Category{Name: "Textiles"}
	err := s.categoryRepo.Create(context.Background(), category)

	s.NoError(err)
	_, parseErr := uuid.Parse(category.ID)
	s.NoError(parseErr)
	s.Equal([]string{}, category.MappedChildren)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryCreate_Duplicate() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO "categories"`).WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	category := &entity.Category{Name: "Textiles"}
	err := s.categoryRepo.Create(context.Background(), category)

	s.ErrorIs(err, ErrCategoryAlreadyExists)
	s.Empty(category.ID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryGetByID_Success() {
	id := uuid.NewString()
	s.mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1`).
		WillReturnRows(categoryRow(sqlmock.NewRows(categoryColumns), id, "Textiles"))

	category, err := s.categoryRepo.GetByID(context.Background(), id)

	s.Require().NoError(err)
	s.Equal(id, category.ID)
	s.Equal("Textiles", category.Name)
	s.Equal("title", category.MetaTitle)
	s.Equal([]string{"c2"}, category.MappedChildren)
	s.Equal([]entity.Link{{Text: "Docs", URL: "https://example.com"}}, category.Links)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryGetByID_NotFound() {
	s.mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(categoryColumns))

	category, err := s.categoryRepo.GetByID(context.Background(), uuid.NewString())

	s.Nil(category)
	s.ErrorIs(err, ErrCategoryNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryGetByID_InvalidID() {
	category, err := s.categoryRepo.GetByID(context.Background(), "507f1f77bcf86cd799439011")

	s.Nil(category)
	s.ErrorIs(err, ErrCategoryNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryGetByID_DBError() {
	s.mock.ExpectQuery(`SELECT \* FROM "categories"`).WillReturnError(sql.ErrConnDone)

	_, err := s.categoryRepo.GetByID(context.Background(), uuid.NewString())

	s.ErrorContains(err, "failed to get category")
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryFind_SearchSortPage() {
	s.mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name ILIKE \$1 ESCAPE '\\' ORDER BY "name","id" LIMIT \$2 OFFSET \$3`).
		WithArgs("%50\\%%", 10, 10).
		WillReturnRows(categoryRow(sqlmock.NewRows(categoryColumns), uuid.NewString(), "50% off"))

	spec := entity.ListQuery{Page: 2, Limit: 10, Search: "50%", SortBy: entity.SortByName, SortOrder: entity.SortAsc}.
		Normalize(100).ToSpec()
	categories, err := s.categoryRepo.Find(context.Background(), spec)

	s.Require().NoError(err)
	s.Len(categories, 1)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryFind_SearchIgnoresCase() {
	rows := sqlmock.NewRows(categoryColumns)
	categoryRow(rows, uuid.NewString(), "Shoes")
	categoryRow(rows, uuid.NewString(), "SHOE-X")
	s.mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name ILIKE \$1 ESCAPE '\\' ORDER BY "name","id" LIMIT \$2`).
		WithArgs("%shoe%", 10).
		WillReturnRows(rows)

	spec := entity.ParseListQuery("1", "10", "shoe", "name", "asc").Normalize(100).ToSpec()
	categories, err := s.categoryRepo.Find(context.Background(), spec)

	s.Require().NoError(err)
	s.Require().Len(categories, 2)
	s.Equal("Shoes", categories[0].Name)
	s.Equal("SHOE-X", categories[1].Name)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryCount() {
	s.mock.ExpectQuery(`SELECT count\(\*\) FROM "categories" WHERE name ILIKE \$1`).
		WithArgs("%tex%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := s.categoryRepo.Count(context.Background(), entity.Filter{NameContains: "tex"})

	s.NoError(err)
	s.Equal(int64(3), count)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryUpdate_NotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "categories" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.categoryRepo.Update(context.Background(), &entity.Category{ID: uuid.NewString(), Name: "Textiles"})

	s.ErrorIs(err, ErrCategoryNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryUpdate_DuplicateName() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "categories" SET`).WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	err := s.categoryRepo.Update(context.Background(), &entity.Category{ID: uuid.NewString(), Name: "Textiles"})

	s.ErrorIs(err, ErrCategoryAlreadyExists)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryDelete_ReturnsDeleted() {
	id := uuid.NewString()
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1`).
		WillReturnRows(categoryRow(sqlmock.NewRows(categoryColumns), id, "Textiles"))
	s.mock.ExpectExec(`DELETE FROM "categories" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	deleted, err := s.categoryRepo.Delete(context.Background(), id)

	s.Require().NoError(err)
	s.Equal(id, deleted.ID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestCategoryDelete_NotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(categoryColumns))
	s.mock.ExpectRollback()

	deleted, err := s.categoryRepo.Delete(context.Background(), uuid.NewString())

	s.Nil(deleted)
	s.ErrorIs(err, ErrCategoryNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Subcategories =====================

func (s *PostgresRepositoryTestSuite) TestSubcategoryIDsByParents() {
	c1 := uuid.NewString()
	s1, s2 := uuid.NewString(), uuid.NewString()
	s.mock.ExpectQuery(`SELECT "id" FROM "subcategories" WHERE mapped_parent IN \(\$1\)`).
		WithArgs(c1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(s1).AddRow(s2))

	ids, err := s.subcategoryRepo.IDsByParents(context.Background(), []string{c1, "not-a-uuid"})

	s.NoError(err)
	s.Equal([]string{s1, s2}, ids)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestSubcategoryCountOrphans() {
	s.mock.ExpectQuery(`LEFT JOIN categories c ON c.id = s.mapped_parent WHERE c.id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := s.subcategoryRepo.CountOrphans(context.Background())

	s.NoError(err)
	s.Equal(int64(2), count)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestSubcategoryCreate_InvalidParent() {
	err := s.subcategoryRepo.Create(context.Background(), &entity.Subcategory{Name: "Yarn", MappedParent: "bad"})

	s.ErrorContains(err, "invalid mappedParent")
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Products =====================

func (s *PostgresRepositoryTestSuite) TestProductCreate_DuplicateInSubcategory() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`INSERT INTO "products"`).WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	err := s.productRepo.Create(context.Background(), &entity.Product{Name: "Cotton yarn", MappedParent: uuid.NewString()})

	s.ErrorIs(err, ErrProductAlreadyExists)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestProductExistsByNameInSubcategory() {
	parent := uuid.NewString()
	s.mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE mapped_parent = \$1 AND name = \$2`).
		WithArgs(parent, "Cotton yarn").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := s.productRepo.ExistsByNameInSubcategory(context.Background(), parent, "Cotton yarn")

	s.NoError(err)
	s.True(exists)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestProductFind_ParentFilterWithoutValidIDs() {
	s.mock.ExpectQuery(`SELECT \* FROM "products" WHERE 1 = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	products, err := s.productRepo.Find(context.Background(), entity.QuerySpec{
		Filter: entity.Filter{Parent: entity.ParentIn("bad")},
	})

	s.NoError(err)
	s.Empty(products)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresRepositoryTestSuite) TestProductCountOrphans() {
	s.mock.ExpectQuery(`LEFT JOIN subcategories s ON s.id = p.mapped_parent WHERE s.id IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := s.productRepo.CountOrphans(context.Background())

	s.NoError(err)
	s.Equal(int64(5), count)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Helpers =====================

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestValidUUIDs(t *testing.T) {
	id := uuid.NewString()

	assert.Equal(t, []string{id}, validUUIDs([]string{"x", id, ""}))
	assert.NotNil(t, validUUIDs(nil))
}
