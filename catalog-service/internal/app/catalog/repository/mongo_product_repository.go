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

// productDocument - товар в MongoDB, mappedParent хранится как ObjectID подкатегории
type productDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	MappedParent primitive.ObjectID `bson:"mappedParent"`
	Meta         metadataDocument   `bson:",inline"`
	Description  string             `bson:"description,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *productDocument) toEntity() entity.Product {
	return entity.Product{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		MappedParent: d.MappedParent.Hex(),
		Metadata:     d.Meta.toEntity(),
		Description:  d.Description,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newProductDocument(p *entity.Product, id primitive.ObjectID) (productDocument, error) {
	parent, ok := parseObjectID(p.MappedParent)
	if !ok {
		return productDocument{}, fmt.Errorf("invalid mappedParent %q", p.MappedParent)
	}
	return productDocument{
		ID:           id,
		Name:         p.Name,
		MappedParent: parent,
		Meta:         toMetadataDocument(p.Metadata),
		Description:  p.Description,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository создает репозиторий товаров на MongoDB
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection(ProductsCollection)}
}

// Create сохраняет товар
// Дубликат (mappedParent, name) по уникальному индексу -> ErrProductAlreadyExists
func (r *mongoProductRepository) Create(ctx context.Context, product *entity.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	id := primitive.NewObjectID()
	doc, err := newProductDocument(product, id)
	if err != nil {
		return err
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpInsert, ProductsCollection)
	_, err = r.collection.InsertOne(ctx, doc)
	observe(timer, err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	product.ID = id.Hex()
	return nil
}

func (r *mongoProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, ErrProductNotFound
	}

	var doc productDocument
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, ProductsCollection)
	err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	observe(timer, err)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product := doc.toEntity()
	return &product, nil
}

// Find с пустой сортировкой и Limit == 0 отдает товары в естественном порядке хранилища
func (r *mongoProductRepository) Find(ctx context.Context, spec entity.QuerySpec) ([]entity.Product, error) {
	if spec.Filter.Parent.MatchesNothing() {
		return []entity.Product{}, nil
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpSelect, ProductsCollection)
	cursor, err := r.collection.Find(ctx, mongoFilter(spec.Filter), mongoFindOptions(spec))
	observe(timer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]entity.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toEntity())
	}
	return products, nil
}

func (r *mongoProductRepository) Count(ctx context.Context, filter entity.Filter) (int64, error) {
	return countDocuments(ctx, r.collection, filter)
}

func (r *mongoProductRepository) ExistsByNameInSubcategory(ctx context.Context, subcategoryID, name string) (bool, error) {
	parent, ok := parseObjectID(subcategoryID)
	if !ok {
		return false, nil
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpCount, ProductsCollection)
	count, err := r.collection.CountDocuments(ctx,
		bson.M{"mappedParent": parent, "name": name},
		options.Count().SetLimit(1),
	)
	observe(timer, err)
	if err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return count > 0, nil
}

func (r *mongoProductRepository) CountOrphans(ctx context.Context) (int64, error) {
	return countOrphans(ctx, r.collection, SubcategoriesCollection)
}

// Update перезаписывает изменяемые поля
// Переименование или перенос в подкатегорию с таким же именем товара -> ErrProductAlreadyExists
func (r *mongoProductRepository) Update(ctx context.Context, product *entity.Product) error {
	oid, ok := parseObjectID(product.ID)
	if !ok {
		return ErrProductNotFound
	}

	product.UpdatedAt = time.Now().UTC()
	doc, err := newProductDocument(product, oid)
	if err != nil {
		return err
	}

	set := doc.Meta.setFields()
	set["name"] = doc.Name
	set["mappedParent"] = doc.MappedParent
	set["description"] = doc.Description
	set["updatedAt"] = doc.UpdatedAt

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpUpdate, ProductsCollection)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	observe(timer, err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) (*entity.Product, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, ErrProductNotFound
	}

	var doc productDocument
	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpDelete, ProductsCollection)
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	observe(timer, err)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	product := doc.toEntity()
	return &product, nil
}
