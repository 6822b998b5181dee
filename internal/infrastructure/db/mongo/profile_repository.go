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

const collectionProfiles = "profiles"

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionProfiles)}
}

type profileDoc struct {
	UserID         primitive.ObjectID `bson:"user_id"`
	Name           string             `bson:"name"`
	PhoneNumber    string             `bson:"phone_number,omitempty"`
	Address        string             `bson:"address,omitempty"`
	ProfilePicture string             `bson:"profile_picture,omitempty"`
	JoinedDate     time.Time          `bson:"joined_date"`
}

func (d profileDoc) toDomain() *domain.Profile {
	return &domain.Profile{
		UserID:         d.UserID.Hex(),
		Name:           d.Name,
		PhoneNumber:    d.PhoneNumber,
		Address:        d.Address,
		ProfilePicture: d.ProfilePicture,
		JoinedDate:     d.JoinedDate.UTC(),
	}
}

func newProfileDoc(p *domain.Profile) (profileDoc, error) {
	oid, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return profileDoc{}, fmt.Errorf("profile user id: %w", err)
	}
	return profileDoc{
		UserID:         oid,
		Name:           p.Name,
		PhoneNumber:    p.PhoneNumber,
		Address:        p.Address,
		ProfilePicture: p.ProfilePicture,
		JoinedDate:     p.JoinedDate,
	}, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	doc, err := newProfileDoc(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrProfileNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc profileDoc
	if err := r.col.FindOne(ctx, bson.M{"user_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProfileRepository) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(userIDs))
	oids := objectIDs(userIDs)
	if len(oids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	for _, d := range docs {
		out[d.UserID.Hex()] = d.toDomain()
	}
	return out, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	doc, err := newProfileDoc(p)
	if err != nil {
		return domain.ErrProfileNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"user_id": doc.UserID}, bson.M{"$set": bson.M{
		"name":            doc.Name,
		"phone_number":    doc.PhoneNumber,
		"address":         doc.Address,
		"profile_picture": doc.ProfilePicture,
	}})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrProfileNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": oid})
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// EnsureIndexes creates the one-profile-per-account index.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("profile indexes: %w", err)
	}
	return nil
}
