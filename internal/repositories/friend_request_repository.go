package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenochat-app/backend/internal/models"
)

// FriendRequestRepository defines the interface for friend request data
// operations
type FriendRequestRepository interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error
	ListByRecipient(ctx context.Context, recipient primitive.ObjectID, status string) ([]models.FriendRequest, error)
	ListBySender(ctx context.Context, sender primitive.ObjectID, status string) ([]models.FriendRequest, error)
	EnsureIndexes(ctx context.Context) error
}

// PairKey canonicalizes an unordered user pair to a single key. The unique
// index on this key guarantees at most one request per pair even under
// concurrent inserts from both directions.
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah < bh {
		return ah + ":" + bh
	}
	return bh + ":" + ah
}

// MongoFriendRequestRepository implements FriendRequestRepository for
// MongoDB
type MongoFriendRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoFriendRequestRepository creates a new MongoFriendRequestRepository
func NewMongoFriendRequestRepository(db *mongo.Database) *MongoFriendRequestRepository {
	return &MongoFriendRequestRepository{collection: db.Collection("friendrequests")}
}

// EnsureIndexes creates the unique pair index and the listing indexes.
func (r *MongoFriendRequestRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}}},
	})
	return err
}

// Create inserts a new pending friend request. A request already existing
// between the pair, in either direction, maps to ErrDuplicate.
func (r *MongoFriendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	req.ID = primitive.NewObjectID()
	req.Status = models.StatusPending
	req.PairKey = PairKey(req.Sender, req.Recipient)
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves a friend request by id.
func (r *MongoFriendRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindBetween retrieves the request between two users, regardless of
// direction or status.
func (r *MongoFriendRequestRepository) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"pair_key": PairKey(a, b)}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// MarkAccepted sets the request status to accepted. The status field is
// monotonic, so last-write-wins is acceptable here.
func (r *MongoFriendRequestRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.StatusAccepted, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRecipient retrieves requests addressed to a user with the given
// status.
func (r *MongoFriendRequestRepository) ListByRecipient(ctx context.Context, recipient primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	return r.list(ctx, bson.M{"recipient": recipient, "status": status})
}

// ListBySender retrieves requests sent by a user with the given status.
func (r *MongoFriendRequestRepository) ListBySender(ctx context.Context, sender primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	return r.list(ctx, bson.M{"sender": sender, "status": status})
}

func (r *MongoFriendRequestRepository) list(ctx context.Context, filter bson.M) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
