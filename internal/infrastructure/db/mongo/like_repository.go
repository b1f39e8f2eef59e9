package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

const (
	PostLikesCollection    = "post_likes"
	CommentLikesCollection = "comment_likes"
)

// LikeRepository stores likes of one target kind; posts and comments each
// get their own collection.
type LikeRepository struct {
	coll *mongo.Collection
}

func NewLikeRepository(db *mongo.Database, collection string) *LikeRepository {
	return &LikeRepository{coll: db.Collection(collection)}
}

var _ ports.LikeRepository = (*LikeRepository)(nil)

type mongoLike struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	TargetID  string             `bson:"target_id"`
	CreatedAt int64              `bson:"created_at"`
}

// Create relies on the unique {user_id, target_id} index.
func (r *LikeRepository) Create(ctx context.Context, like *domain.Like) (*domain.Like, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoLike{
		UserID:    like.UserID,
		TargetID:  like.TargetID,
		CreatedAt: like.CreatedAt.Unix(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyLiked
		}
		return nil, fmt.Errorf("insert like: %w", err)
	}

	oid, _ := res.InsertedID.(primitive.ObjectID)
	return &domain.Like{
		ID:        oid.Hex(),
		UserID:    doc.UserID,
		TargetID:  doc.TargetID,
		CreatedAt: unixToTime(doc.CreatedAt),
	}, nil
}

func (r *LikeRepository) Delete(ctx context.Context, userID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "target_id": targetID})
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLikeNotFound
	}
	return nil
}

func (r *LikeRepository) DeleteByTarget(ctx context.Context, targetID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"target_id": targetID})
	if err != nil {
		return 0, fmt.Errorf("delete likes of %s: %w", targetID, err)
	}
	return res.DeletedCount, nil
}

func (r *LikeRepository) CountByTarget(ctx context.Context, targetID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"target_id": targetID})
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// CountByUser is served by the {user_id, target_id} index.
func (r *LikeRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count likes by user: %w", err)
	}
	return n, nil
}

func (r *LikeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "target_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "target_id", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
