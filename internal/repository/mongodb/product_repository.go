package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

type productDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Brand        string             `bson:"brand"`
	Price        float64            `bson:"price"`
	Quantity     int                `bson:"quantity"`
	Category     string             `bson:"category"`
	FreeShipping bool               `bson:"freeShipping"`
	Description  string             `bson:"description"`
	Image        *string            `bson:"image"`
	SellerID     primitive.ObjectID `bson:"sellerId"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// summaryProjection is the field subset read by paginated listings.
var summaryProjection = bson.M{"name": 1, "brand": 1, "price": 1, "image": 1, "description": 1}

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

func (r *ProductRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sellerId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create products seller index: %w", err)
	}
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID.IsZero() {
		product.ID = domain.NewID()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, toProductDoc(product)); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id domain.ID) (*domain.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.ObjectID()}).Decode(&doc); err != nil {
		return nil, notFound(err, "product")
	}
	p := fromProductDoc(doc)
	return &p, nil
}

// Replace sets every mutable field in one update; sellerId and createdAt are
// left as stored.
func (r *ProductRepository) Replace(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": product.ID.ObjectID()}, bson.M{
		"$set": bson.M{
			"name":         product.Name,
			"brand":        product.Brand,
			"price":        product.Price,
			"quantity":     product.Quantity,
			"category":     product.Category,
			"freeShipping": product.FreeShipping,
			"description":  product.Description,
			"image":        product.Image,
			"updatedAt":    product.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id domain.ID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.ObjectID()})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *ProductRepository) Search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	match := bson.M{}
	if !filter.SellerID.IsZero() {
		match["sellerId"] = filter.SellerID.ObjectID()
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		match["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit)).
		SetProjection(summaryProjection)
	return r.find(ctx, match, opts)
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	products := []domain.Product{}
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, fromProductDoc(doc))
	}
	return products, cur.Err()
}

func toProductDoc(p *domain.Product) productDoc {
	return productDoc{
		ID:           p.ID.ObjectID(),
		Name:         p.Name,
		Brand:        p.Brand,
		Price:        p.Price,
		Quantity:     p.Quantity,
		Category:     p.Category,
		FreeShipping: p.FreeShipping,
		Description:  p.Description,
		Image:        p.Image,
		SellerID:     p.SellerID.ObjectID(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromProductDoc(doc productDoc) domain.Product {
	return domain.Product{
		ID:           domain.IDFromObjectID(doc.ID),
		Name:         doc.Name,
		Brand:        doc.Brand,
		Price:        doc.Price,
		Quantity:     doc.Quantity,
		Category:     doc.Category,
		FreeShipping: doc.FreeShipping,
		Description:  doc.Description,
		Image:        doc.Image,
		SellerID:     domain.IDFromObjectID(doc.SellerID),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
