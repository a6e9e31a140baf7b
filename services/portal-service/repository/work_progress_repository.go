package repository

import (
	"context"
	"errors"
	"time"

	"grievance-portal/services/portal-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const WorkProgressCollection = "work_progress"

type WorkProgressFilter struct {
	AssignedTo  string
	Status      string
	GrievanceID *primitive.ObjectID
}

type WorkProgressRepository interface {
	// UpsertForGrievance (re)opens the grievance's entry for officerID.
	UpsertForGrievance(ctx context.Context, grievanceID primitive.ObjectID, officerID string, now time.Time) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.WorkProgress, error)
	Replace(ctx context.Context, wp *models.WorkProgress) error
	Find(ctx context.Context, filter WorkProgressFilter, skip int64, limit int) ([]models.WorkProgress, int64, error)
}

type mongoWorkProgressRepository struct {
	coll *mongo.Collection
}

func NewMongoWorkProgressRepository(db *mongo.Database) WorkProgressRepository {
	return &mongoWorkProgressRepository{coll: db.Collection(WorkProgressCollection)}
}

func (r *mongoWorkProgressRepository) UpsertForGrievance(ctx context.Context, grievanceID primitive.ObjectID, officerID string, now time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"grievance": grievanceID},
		bson.M{
			"$set": bson.M{
				"assignedTo": officerID,
				"status":     models.WorkPending,
				"startDate":  now,
				"updatedAt":  now,
			},
			"$unset":       bson.M{"completionDate": ""},
			"$setOnInsert": bson.M{"createdAt": now, "remarks": ""},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *mongoWorkProgressRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WorkProgress, error) {
	var wp models.WorkProgress
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&wp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wp, nil
}

func (r *mongoWorkProgressRepository) Replace(ctx context.Context, wp *models.WorkProgress) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": wp.ID}, wp)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoWorkProgressRepository) Find(ctx context.Context, filter WorkProgressFilter, skip int64, limit int) ([]models.WorkProgress, int64, error) {
	query := BuildWorkProgressQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	entries := []models.WorkProgress{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func BuildWorkProgressQuery(f WorkProgressFilter) bson.M {
	query := bson.M{}
	if f.AssignedTo != "" {
		query["assignedTo"] = f.AssignedTo
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.GrievanceID != nil {
		query["grievance"] = *f.GrievanceID
	}
	return query
}

func (f WorkProgressFilter) Matches(wp *models.WorkProgress) bool {
	if f.AssignedTo != "" && wp.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Status != "" && wp.Status != f.Status {
		return false
	}
	if f.GrievanceID != nil && wp.GrievanceID != *f.GrievanceID {
		return false
	}
	return true
}
