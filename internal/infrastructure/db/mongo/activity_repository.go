package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grocerypos/accounts/internal/core/domain"
)

const activityCollection = "auth_activity"

// ActivityRepository stores the account audit trail. It implements
// ports.ActivitySink.
type ActivityRepository struct {
	coll *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{coll: db.Collection(activityCollection)}
}

type activityDocument struct {
	Type       string    `bson:"type"`
	Username   string    `bson:"username"`
	UserID     int64     `bson:"user_id,omitempty"`
	Role       string    `bson:"role,omitempty"`
	At         time.Time `bson:"at"`
	RecordedAt time.Time `bson:"recorded_at"`
}

func toActivityDocument(e domain.ActivityEvent, now time.Time) activityDocument {
	at := e.At
	if at.IsZero() {
		at = now
	}
	return activityDocument{
		Type:       string(e.Type),
		Username:   e.Username,
		UserID:     e.UserID,
		Role:       string(e.Role),
		At:         at.UTC(),
		RecordedAt: now.UTC(),
	}
}

// EnsureIndexes creates the lookup index used to browse one account's
// history newest first.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("username_at"),
	})
	if err != nil {
		return fmt.Errorf("create activity index: %w", err)
	}
	return nil
}

// InsertActivity appends one event to the audit trail.
func (r *ActivityRepository) InsertActivity(ctx context.Context, event domain.ActivityEvent) error {
	if _, err := r.coll.InsertOne(ctx, toActivityDocument(event, time.Now())); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
