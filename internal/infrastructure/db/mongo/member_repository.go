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

const collectionMembers = "members"

// MemberRepository implements ports.MemberRepository using MongoDB.
type MemberRepository struct {
	col *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{col: db.Collection(collectionMembers)}
}

type memberDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	FarmID     string             `bson:"farm_id"`
	FarmUserID string             `bson:"farm_user_id"`
	IsActive   bool               `bson:"is_active"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d memberDoc) toDomain() *domain.Membership {
	return &domain.Membership{
		ID:         d.ID.Hex(),
		FarmID:     d.FarmID,
		FarmUserID: d.FarmUserID,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// Create checks both roles and inserts an active membership.
func (r *MemberRepository) Create(ctx context.Context, farm, farmUser *domain.Account) (*domain.Membership, error) {
	m, err := domain.NewMembership(farm, farmUser, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := memberDoc{
		ID:         primitive.NewObjectID(),
		FarmID:     m.FarmID,
		FarmUserID: m.FarmUserID,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrMembershipExists
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}
	m.ID = doc.ID.Hex()
	return m, nil
}

func (r *MemberRepository) FindByID(ctx context.Context, id string) (*domain.Membership, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMembershipNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MemberRepository) FindActiveByFarmUser(ctx context.Context, farmUserID string) (*domain.Membership, error) {
	return r.findOne(ctx, bson.M{"farm_user_id": farmUserID, "is_active": true})
}

func (r *MemberRepository) findOne(ctx context.Context, filter bson.M) (*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc memberDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MemberRepository) ListActiveByFarm(ctx context.Context, farmID string) ([]*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"farm_id": farmID, "is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	var docs []memberDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}

	out := make([]*domain.Membership, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MemberRepository) SetActive(ctx context.Context, id string, active bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrMembershipNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"is_active": active}})
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// EnsureIndexes creates the unique (farm, farm_user) pair index.
func (r *MemberRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "farm_id", Value: 1}, {Key: "farm_user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "farm_user_id", Value: 1}, {Key: "is_active", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("member indexes: %w", err)
	}
	return nil
}
