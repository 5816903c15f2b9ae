package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// categoryDocument - категория в MongoDB
// mappedChildren хранится строками: ссылки не проверяются и могут указывать на удаленные категории
type categoryDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Name           string             `bson:"name"`
	Meta           metadataDocument   `bson:",inline"`
	MappedChildren []string           `bson:"mappedChildren"`
	Paragraph      string             `bson:"paragraph,omitempty"`
	Links          []linkDocument     `bson:"links"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *categoryDocument) toEntity() entity.Category {
	children := d.MappedChildren
	if children == nil {
		children = []string{}
	}
	return entity.Category{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Metadata:       d.Meta.toEntity(),
		MappedChildren: children,
		Paragraph:      d.Paragraph,
		Links:          linksFromDocuments(d.Links),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func newCategoryDocument(c *entity.Category, id primitive.ObjectID) categoryDocument {
	children := c.MappedChildren
	if children == nil {
		children = []string{}
	}
	return categoryDocument{
		ID:             id,
		Name:           c.Name,
		Meta:           toMetadataDocument(c.Metadata),
		MappedChildren: children,
		Paragraph:      c.Paragraph,
		Links:          toLinkDocuments(c.Links),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type mongoCategoryRepository struct {
	collection *mongo.Collection
}

// NewMongoCategoryRepository создает репозиторий категорий на MongoDB
// Индексы создаются отдельно через EnsureMongoIndexes
func NewMongoCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepository{collection: db.Collection(CategoriesCollection)}
}

// Create сохраняет категорию, выставляет ID и временные метки
// Дубликат имени (уникальный индекс) -> ErrCategoryAlreadyExists
func (r *mongoCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	id := primitive.NewObjectID()
	doc := newCategoryDocument(category, id)

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpInsert, CategoriesCollection)
	_, err := r.collection.InsertOne(ctx, doc)
	observe(timer, err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	category.ID = id.Hex()
	if category.MappedChildren == nil {
		category.MappedChildren = []string{}
	}
	return nil
}

func (r *mongoCategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, ErrCategoryNotFound
	}

	var doc categoryDocument
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, CategoriesCollection)
	err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	observe(timer, err)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category := doc.toEntity()
	return &category, nil
}

// GetByIDs возвращает найденные категории, отсутствующие и некорректные ID пропускаются
func (r *mongoCategoryRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Category, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []entity.Category{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, mongoFindOptions(entity.QuerySpec{}))
}

func (r *mongoCategoryRepository) Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Category, error) {
	if spec.Filter.Parent.MatchesNothing() {
		return []entity.Category{}, nil
	}
	return r.find(ctx, mongoFilter(spec.Filter), mongoFindOptions(spec))
}

func (r *mongoCategoryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]entity.Category, error) {
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, CategoriesCollection)
	cursor, err := r.collection.Find(ctx, filter, opts)
	observe(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]entity.Category, 0, len(docs))
	for i := range docs {
		categories = append(categories, docs[i].toEntity())
	}
	return categories, nil
}

func (r *mongoCategoryRepository) Count(ctx context.Context, filter entity.Filter) (int64, error) {
	return countDocuments(ctx, r.collection, filter)
}

// Update перезаписывает изменяемые поля, выставляет updatedAt
func (r *mongoCategoryRepository) Update(ctx context.Context, category *entity.Category) error {
	oid, ok := parseObjectID(category.ID)
	if !ok {
		return ErrCategoryNotFound
	}

	category.UpdatedAt = time.Now().UTC()
	doc := newCategoryDocument(category, oid)

	set := doc.Meta.setFields()
	set["name"] = doc.Name
	set["mappedChildren"] = doc.MappedChildren
	set["paragraph"] = doc.Paragraph
	set["links"] = doc.Links
	set["updatedAt"] = doc.UpdatedAt
	update := bson.M{"$set": set}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpUpdate, CategoriesCollection)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	observe(timer, err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete удаляет категорию и возвращает удаленный документ
// Подкатегории не удаляются каскадно
func (r *mongoCategoryRepository) Delete(ctx context.Context, id string) (*entity.Category, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, ErrCategoryNotFound
	}

	var doc categoryDocument
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpDelete, CategoriesCollection)
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	observe(timer, err)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}

	category := doc.toEntity()
	return &category, nil
}
