package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

const collectionAccounts = "accounts"

type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	IsActive     bool               `bson:"is_active"`
	IsVerified   bool               `bson:"is_verified"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		IsActive:     d.IsActive,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// Create inserts acc and assigns its ID.
func (r *AccountRepository) Create(ctx context.Context, acc *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDoc{
		ID:           primitive.NewObjectID(),
		Email:        acc.Email,
		PasswordHash: acc.PasswordHash,
		Role:         string(acc.Role),
		IsActive:     acc.IsActive,
		IsVerified:   acc.IsVerified,
		CreatedAt:    acc.CreatedAt,
		UpdatedAt:    acc.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	acc.ID = doc.ID.Hex()
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Account, error) {
	out := make(map[string]*domain.Account, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	docs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID.Hex()] = d.toDomain()
	}
	return out, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	docs, err := r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *AccountRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]accountDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return docs, nil
}

// Update overwrites the password hash, flags and updated_at.
func (r *AccountRepository) Update(ctx context.Context, acc *domain.Account) error {
	oid, err := primitive.ObjectIDFromHex(acc.ID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password_hash": acc.PasswordHash,
		"is_active":     acc.IsActive,
		"is_verified":   acc.IsVerified,
		"updated_at":    acc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// SearchByRoleAndName joins profiles and matches their name case-insensitively.
func (r *AccountRepository) SearchByRoleAndName(ctx context.Context, role domain.Role, name string, limit int) ([]domain.AccountProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": string(role)}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionProfiles,
			"localField":   "_id",
			"foreignField": "user_id",
			"as":           "profile",
		}}},
		{{Key: "$unwind", Value: "$profile"}},
		{{Key: "$match", Value: bson.M{"profile.name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "profile.name", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}

	var rows []struct {
		Account accountDoc `bson:",inline"`
		Profile profileDoc `bson:"profile"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]domain.AccountProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AccountProfile{Account: row.Account.toDomain(), Profile: row.Profile.toDomain()})
	}
	return out, nil
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}
	return nil
}
