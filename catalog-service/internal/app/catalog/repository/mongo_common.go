package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"pepagora/catalog-service/internal/app/catalog/entity"
	"pepagora/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const backendMongo = "mongodb"

// metadataDocument - метаданные, встраиваются в документ на верхний уровень
type metadataDocument struct {
	UniqueID        string `bson:"uniqueId,omitempty"`
	LiveURL         string `bson:"liveUrl,omitempty"`
	MetaTitle       string `bson:"metaTitle,omitempty"`
	MetaKeyword     string `bson:"metaKeyword,omitempty"`
	MetaDescription string `bson:"metaDescription,omitempty"`
	ImageURL        string `bson:"imageUrl,omitempty"`
}

type linkDocument struct {
	Text string `bson:"text"`
	URL  string `bson:"url"`
}

func toMetadataDocument(m entity.Metadata) metadataDocument {
	return metadataDocument(m)
}

func (d metadataDocument) toEntity() entity.Metadata {
	return entity.Metadata(d)
}

// setFields - поля метаданных для $set, пустые значения тоже записываются
func (d metadataDocument) setFields() bson.M {
	return bson.M{
		"uniqueId":        d.UniqueID,
		"liveUrl":         d.LiveURL,
		"metaTitle":       d.MetaTitle,
		"metaKeyword":     d.MetaKeyword,
		"metaDescription": d.MetaDescription,
		"imageUrl":        d.ImageURL,
	}
}

func toLinkDocuments(links []entity.Link) []linkDocument {
	docs := make([]linkDocument, 0, len(links))
	for _, l := range links {
		docs = append(docs, linkDocument{Text: l.Text, URL: l.URL})
	}
	return docs
}

func linksFromDocuments(docs []linkDocument) []entity.Link {
	links := make([]entity.Link, 0, len(docs))
	for _, d := range docs {
		links = append(links, entity.Link{Text: d.Text, URL: d.URL})
	}
	return links
}

// parseObjectID возвращает false для строки, которая не является ObjectID
func parseObjectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// objectIDs переводит список ID, некорректные пропускаются
// Результат никогда не nil, чтобы $in с пустым списком ничего не находил
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := parseObjectID(id); ok {
			oids = append(oids, oid)
		}
	}
	return oids
}

// mongoFilter строит фильтр: подстрока имени без учета регистра
// (спецсимволы regex экранируются) и принадлежность mappedParent списку
func mongoFilter(f entity.Filter) bson.M {
	filter := bson.M{}
	if f.NameContains != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameContains), Options: "i"}
	}
	if f.Parent.Enabled {
		filter["mappedParent"] = bson.M{"$in": objectIDs(f.Parent.IDs)}
	}
	return filter
}

// mongoSortFields - поля сортировки API совпадают с именами полей документа
var mongoSortFields = map[string]string{
	entity.SortByCreatedAt: "createdAt",
	entity.SortByUpdatedAt: "updatedAt",
	entity.SortByName:      "name",
}

// mongoFindOptions переводит сортировку и пагинацию QuerySpec в опции Find
// _id добавляется вторым ключом, чтобы страницы не пересекались при равных значениях
func mongoFindOptions(spec entity.QuerySpec) *options.FindOptions {
	opts := options.Find()
	if field, ok := mongoSortFields[spec.Sort.Field]; ok {
		dir := 1
		if spec.Sort.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}})
	}
	if spec.Skip > 0 {
		opts.SetSkip(spec.Skip)
	}
	if spec.Limit > 0 {
		opts.SetLimit(spec.Limit)
	}
	return opts
}

// observe записывает метрику запроса, отсутствие документа ошибкой не считается
func observe(timer *metrics.DbTimer, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = nil
	}
	timer.Observe(err)
}

// countOrphans считает документы коллекции, чей mappedParent не найден в parentCollection
func countOrphans(ctx context.Context, coll *mongo.Collection, parentCollection string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: parentCollection},
			{Key: "localField", Value: "mappedParent"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "parent"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "parent", Value: bson.D{{Key: "$size", Value: 0}}}}}},
		{{Key: "$count", Value: "orphans"}},
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpAggregate, coll.Name())
	cursor, err := coll.Aggregate(ctx, pipeline)
	observe(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count orphans in %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Orphans int64 `bson:"orphans"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("failed to decode orphans count: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Orphans, nil
}

func countDocuments(ctx context.Context, coll *mongo.Collection, filter entity.Filter) (int64, error) {
	if filter.Parent.MatchesNothing() {
		return 0, nil
	}

	timer := metrics.NewDbTimer(backendMongo, metrics.DbOpCount, coll.Name())
	count, err := coll.CountDocuments(ctx, mongoFilter(filter))
	observe(timer, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", coll.Name(), err)
	}
	return count, nil
}

// EnsureMongoIndexes создает индексы каталога:
// уникальное имя категории, mappedParent у подкатегорий,
// уникальная пара (mappedParent, name) у товаров
// Уникальные индексы закрывают гонку между проверкой и вставкой
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CategoriesCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("name_unique").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("created_at_idx"),
			},
		},
		SubcategoriesCollection: {
			{
				Keys:    bson.D{{Key: "mappedParent", Value: 1}},
				Options: options.Index().SetName("mapped_parent_idx"),
			},
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("created_at_idx"),
			},
		},
		ProductsCollection: {
			{
				Keys:    bson.D{{Key: "mappedParent", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetName("parent_name_unique").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("created_at_idx"),
			},
		},
	}

	for _, name := range []string{CategoriesCollection, SubcategoriesCollection, ProductsCollection} {
		ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := db.Collection(name).Indexes().CreateMany(ctxTimeout, indexes[name])
		cancel()
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
