package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

const (
	collectionConsultantRequests = "consultant_requests"
	collectionConsultantLinks    = "consultant_farms"
)

// ConsultantRepository stores consultant requests and the resulting links.
type ConsultantRepository struct {
	requests *mongo.Collection
	links    *mongo.Collection
}

func NewConsultantRepository(db *mongo.Database) *ConsultantRepository {
	return &ConsultantRepository{
		requests: db.Collection(collectionConsultantRequests),
		links:    db.Collection(collectionConsultantLinks),
	}
}

type requestDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FarmID       string             `bson:"farm_id"`
	ConsultantID string             `bson:"consultant_id"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d requestDoc) toDomain() *domain.ConsultantRequest {
	return &domain.ConsultantRequest{
		ID:           d.ID.Hex(),
		FarmID:       d.FarmID,
		ConsultantID: d.ConsultantID,
		Status:       domain.RequestStatus(d.Status),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type linkDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FarmID       string             `bson:"farm_id"`
	ConsultantID string             `bson:"consultant_id"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// CreateRequest inserts r and assigns its ID. The partial unique index turns
// a concurrent second pending request into domain.ErrPendingRequest.
func (r *ConsultantRepository) CreateRequest(ctx context.Context, req *domain.ConsultantRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := requestDoc{
		ID:           primitive.NewObjectID(),
		FarmID:       req.FarmID,
		ConsultantID: req.ConsultantID,
		Status:       string(req.Status),
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
	if _, err := r.requests.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrPendingRequest
		}
		return fmt.Errorf("insert consultant request: %w", err)
	}
	req.ID = doc.ID.Hex()
	return nil
}

func (r *ConsultantRepository) FindRequest(ctx context.Context, id string) (*domain.ConsultantRequest, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRequestNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc requestDoc
	if err := r.requests.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find consultant request: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ConsultantRepository) HasPendingRequest(ctx context.Context, farmID, consultantID string) (bool, error) {
	return exists(ctx, r.requests, bson.M{
		"farm_id":       farmID,
		"consultant_id": consultantID,
		"status":        string(domain.RequestPending),
	})
}

// UpdateRequestStatus is a compare-and-set on the status field.
func (r *ConsultantRepository) UpdateRequestStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRequestNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update consultant request: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *ConsultantRepository) ListRequestsByFarm(ctx context.Context, farmID string, status domain.RequestStatus) ([]*domain.ConsultantRequest, error) {
	return r.listRequests(ctx, bson.M{"farm_id": farmID, "status": string(status)})
}

func (r *ConsultantRepository) ListRequestsByConsultant(ctx context.Context, consultantID string, status domain.RequestStatus) ([]*domain.ConsultantRequest, error) {
	return r.listRequests(ctx, bson.M{"consultant_id": consultantID, "status": string(status)})
}

func (r *ConsultantRepository) listRequests(ctx context.Context, filter bson.M) ([]*domain.ConsultantRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.requests.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find consultant requests: %w", err)
	}
	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode consultant requests: %w", err)
	}

	out := make([]*domain.ConsultantRequest, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ConsultantRepository) CreateLink(ctx context.Context, l *domain.ConsultantLink) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := linkDoc{
		ID:           primitive.NewObjectID(),
		FarmID:       l.FarmID,
		ConsultantID: l.ConsultantID,
		IsActive:     l.IsActive,
		CreatedAt:    l.CreatedAt,
	}
	if _, err := r.links.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyLinked
		}
		return fmt.Errorf("insert consultant link: %w", err)
	}
	l.ID = doc.ID.Hex()
	return nil
}

func (r *ConsultantRepository) HasActiveLink(ctx context.Context, farmID, consultantID string) (bool, error) {
	return exists(ctx, r.links, bson.M{"farm_id": farmID, "consultant_id": consultantID, "is_active": true})
}

// EnsureIndexes allows one pending request and one link per (farm, consultant).
func (r *ConsultantRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pair := bson.D{{Key: "farm_id", Value: 1}, {Key: "consultant_id", Value: 1}}

	_, err := r.requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: pair,
			Options: options.Index().
				SetUnique(true).
				SetName("pending_request_unique").
				SetPartialFilterExpression(bson.M{"status": string(domain.RequestPending)}),
		},
		{Keys: bson.D{{Key: "consultant_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("consultant request indexes: %w", err)
	}

	_, err = r.links.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: pair, Options: options.Index().SetUnique(true)})
	if err != nil {
		return fmt.Errorf("consultant link indexes: %w", err)
	}
	return nil
}

func exists(ctx context.Context, col *mongo.Collection, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count %s: %w", col.Name(), err)
	}
	return n > 0, nil
}
