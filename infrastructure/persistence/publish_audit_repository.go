package persistence

import (
	"context"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const publishAuditCollection = "publish_audit"

type PublishAuditRepository struct {
	mongoDb  *mongo.Client
	database string
}

// NewPublishAuditRepository accepts a nil client; Record is then a no-op.
func NewPublishAuditRepository(client *mongo.Client, database string) *PublishAuditRepository {
	return &PublishAuditRepository{mongoDb: client, database: database}
}

var _ repository.IPublishAudit = (*PublishAuditRepository)(nil)

func (r *PublishAuditRepository) Record(ctx context.Context, audit *model.PublishAudit) error {
	if r.mongoDb == nil {
		logger.GetLogger().WithField("content_id", audit.ContentID).Debug("MongoDB client is nil - skipping publish audit")
		return nil
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	_, err := r.mongoDb.Database(r.database).Collection(publishAuditCollection).InsertOne(ctx, audit)
	return err
}

// History returns the most recent audit records of one content item.
func (r *PublishAuditRepository) History(ctx context.Context, contentID int64, limit int64) ([]model.PublishAudit, error) {
	if r.mongoDb == nil {
		return []model.PublishAudit{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.mongoDb.Database(r.database).Collection(publishAuditCollection).
		Find(ctx, bson.D{{Key: "contentId", Value: contentID}}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	history := []model.PublishAudit{}
	for cursor.Next(ctx) {
		var a model.PublishAudit
		if err := cursor.Decode(&a); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding publish audit")
			continue
		}
		history = append(history, a)
	}
	return history, cursor.Err()
}
