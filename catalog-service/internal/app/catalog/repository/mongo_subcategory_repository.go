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

// subcategoryDocument - подкатегория в MongoDB, mappedParent хранится как ObjectID категории
type subcategoryDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	MappedParent primitive.ObjectID `bson:"mappedParent"`
	Meta         metadataDocument   `bson:",inline"`
	Paragraph    string             `bson:"paragraph,omitempty"`
	Links        []linkDocument     `bson:"links"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *subcategoryDocument) toEntity() entity.Subcategory {
	return entity.Subcategory{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		MappedParent: d.MappedParent.Hex(),
		Metadata:     d.Meta.toEntity(),
		Paragraph:    d.Paragraph,
		Links:        linksFromDocuments(d.Links),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newSubcategoryDocument(s *entity.Subcategory, id primitive.ObjectID) (subcategoryDocument, error) {
	parent, ok := parseObjectID(s.MappedParent)
	if !ok {
		return subcategoryDocument{}, fmt.Errorf("invalid mappedParent %q", s.MappedParent)
	}
	return subcategoryDocument{
		ID:           id,
		Name:         s.Name,
		MappedParent: parent,
		Meta:         toMetadataDocument(s.Metadata),
		Paragraph:    s.Paragraph,
		Links:        toLinkDocuments(s.Links),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}, nil
}

type mongoSubcategoryRepository struct {
	collection *mongo.Collection
}

// NewMongoSubcategoryRepository создает репозиторий подкатегорий на MongoDB
func NewMongoSubcategoryRepository(db *mongo.Database) SubcategoryRepository {
	return &mongoSubcategoryRepository{collection: db.Collection(SubcategoriesCollection)}
}

func (r *mongoSubcategoryRepository) Create(ctx context.Context, subcategory *entity.Subcategory) error {
	now := time.Now().UTC()
	subcategory.CreatedAt = now
	subcategory.UpdatedAt = now

	id := primitive.NewObjectID()
	doc, err := newSubcategoryDocument(subcategory, id)
	if err != nil {
		return err
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpInsert, SubcategoriesCollection)
	_, err = r.collection.InsertOne(ctx, doc)
	observe(timer, err)
	if err != nil {
		return fmt.Errorf("failed to create subcategory: %w", err)
	}

	subcategory.ID = id.Hex()
	return nil
}

func (r *mongoSubcategoryRepository) GetByID(ctx context.Context, id string) (*entity.Subcategory, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, ErrSubcategoryNotFound
	}

	var doc subcategoryDocument
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, SubcategoriesCollection)
	err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	observe(timer, err)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to get subcategory: %w", err)
	}

	subcategory := doc.toEntity()
	return &subcategory, nil
}

func (r *mongoSubcategoryRepository) Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Subcategory, error) {
	if spec.Filter.Parent.MatchesNothing() {
		return []entity.Subcategory{}, nil
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, SubcategoriesCollection)
	cursor, err := r.collection.Find(ctx, mongoFilter(spec.Filter), mongoFindOptions(spec))
	observe(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find subcategories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []subcategoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode subcategories: %w", err)
	}

	subcategories := make([]entity.Subcategory, 0, len(docs))
	for i := range docs {
		subcategories = append(subcategories, docs[i].toEntity())
	}
	return subcategories, nil
}

func (r *mongoSubcategoryRepository) Count(ctx context.Context, filter entity.Filter) (int64, error) {
	return countDocuments(ctx, r.collection, filter)
}

// IDsByParents читает только _id подкатегорий выбранных категорий
func (r *mongoSubcategoryRepository) IDsByParents(ctx context.Context, categoryIDs []string) ([]string, error) {
	parents := objectIDs(categoryIDs)
	if len(parents) == 0 {
		return []string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, SubcategoriesCollection)
	cursor, err := r.collection.Find(ctx, bson.M{"mappedParent": bson.M{"$in": parents}}, opts)
	observe(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find subcategories by parents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode subcategory ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}

func (r *mongoSubcategoryRepository) CountOrphans(ctx context.Context) (int64, error) {
	return countOrphans(ctx, r.collection, CategoriesCollection)
}

func (r *mongoSubcategoryRepository) Update(ctx context.Context, subcategory *entity.Subcategory) error {
	oid, ok := parseObjectID(subcategory.ID)
	if !ok {
		return ErrSubcategoryNotFound
	}

	subcategory.UpdatedAt = time.Now().UTC()
	doc, err := newSubcategoryDocument(subcategory, oid)
	if err != nil {
		return err
	}

	set := doc.Meta.setFields()
	set["name"] = doc.Name
	set["mappedParent"] = doc.MappedParent
	set["paragraph"] = doc.Paragraph
	set["links"] = doc.Links
	set["updatedAt"] = doc.UpdatedAt

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpUpdate, SubcategoriesCollection)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	observe(timer, err)
	if err != nil {
		return fmt.Errorf("failed to update subcategory: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrSubcategoryNotFound
	}
	return nil
}

// Delete удаляет подкатегорию и возвращает удаленный документ
// Товары подкатегории остаются (каскадного удаления нет)
func (r *mongoSubcategoryRepository) Delete(ctx context.Context, id string) (*entity.Subcategory, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, ErrSubcategoryNotFound
	}

	var doc subcategoryDocument
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpDelete, SubcategoriesCollection)
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	observe(timer, err)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to delete subcategory: %w", err)
	}

	subcategory := doc.toEntity()
	return &subcategory, nil
}
