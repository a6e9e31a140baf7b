package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/workflow"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const GrievanceCollection = "grievances"

// AssignedTo filter values besides a concrete account id.
const (
	AssignedAny  = "true"
	AssignedNone = "false"
)

// GrievanceFilter combines the caller's scope with optional explicit filters.
// Every condition is ANDed, so explicit filters can only narrow the scope.
type GrievanceFilter struct {
	Scope        workflow.Scope
	UserID       string
	Status       string
	Statuses     []string
	Category     string
	DepartmentID string
	AssignedTo   string
	Search       string
}

type GrievanceRepository interface {
	Insert(ctx context.Context, g *models.Grievance) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Grievance, error)
	Replace(ctx context.Context, g *models.Grievance) error
	PushComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Find(ctx context.Context, filter GrievanceFilter, skip int64, limit int) ([]models.Grievance, int64, error)
	Count(ctx context.Context, filter GrievanceFilter) (int64, error)
	CountByStatus(ctx context.Context, filter GrievanceFilter) (map[string]int64, error)
}

type mongoGrievanceRepository struct {
	coll *mongo.Collection
}

func NewMongoGrievanceRepository(db *mongo.Database) GrievanceRepository {
	return &mongoGrievanceRepository{coll: db.Collection(GrievanceCollection)}
}

func (r *mongoGrievanceRepository) Insert(ctx context.Context, g *models.Grievance) error {
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, g)
	return err
}

func (r *mongoGrievanceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Grievance, error) {
	var g models.Grievance
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *mongoGrievanceRepository) Replace(ctx context.Context, g *models.Grievance) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": g.ID}, g)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoGrievanceRepository) PushComment(ctx context.Context, id primitive.ObjectID, c models.Comment) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updatedAt": c.CreatedAt},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoGrievanceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoGrievanceRepository) Find(ctx context.Context, filter GrievanceFilter, skip int64, limit int) ([]models.Grievance, int64, error) {
	query := BuildGrievanceQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	grievances := []models.Grievance{}
	if err := cursor.All(ctx, &grievances); err != nil {
		return nil, 0, err
	}
	return grievances, total, nil
}

func (r *mongoGrievanceRepository) Count(ctx context.Context, filter GrievanceFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, BuildGrievanceQuery(filter))
}

func (r *mongoGrievanceRepository) CountByStatus(ctx context.Context, filter GrievanceFilter) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: BuildGrievanceQuery(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] += row.Count
	}
	return counts, nil
}

// BuildGrievanceQuery translates f into a MongoDB filter document.
func BuildGrievanceQuery(f GrievanceFilter) bson.D {
	var clauses bson.A

	if f.Scope.Deny {
		clauses = append(clauses, bson.D{{Key: "_id", Value: bson.D{{Key: "$exists", Value: false}}}})
	}
	if f.Scope.OwnerID != "" {
		clauses = append(clauses, bson.D{{Key: "user", Value: f.Scope.OwnerID}})
	}
	if f.Scope.ByDepartment {
		clauses = append(clauses, bson.D{{Key: "department", Value: f.Scope.DepartmentID}})
	}
	if f.Scope.AssignedOnly {
		clauses = append(clauses, bson.D{{Key: "assignedTo", Value: bson.D{{Key: "$ne", Value: nil}}}})
	}

	if f.UserID != "" {
		clauses = append(clauses, bson.D{{Key: "user", Value: f.UserID}})
	}
	if f.Status != "" {
		clauses = append(clauses, bson.D{{Key: "status", Value: f.Status}})
	}
	if len(f.Statuses) > 0 {
		clauses = append(clauses, bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: f.Statuses}}}})
	}
	if f.Category != "" {
		clauses = append(clauses, bson.D{{Key: "category", Value: f.Category}})
	}
	if f.DepartmentID != "" {
		clauses = append(clauses, bson.D{{Key: "department", Value: f.DepartmentID}})
	}

	switch f.AssignedTo {
	case "":
	case AssignedAny:
		clauses = append(clauses, bson.D{{Key: "assignedTo", Value: bson.D{{Key: "$ne", Value: nil}}}})
	case AssignedNone:
		clauses = append(clauses, bson.D{{Key: "assignedTo", Value: nil}})
	default:
		clauses = append(clauses, bson.D{{Key: "assignedTo", Value: f.AssignedTo}})
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		clauses = append(clauses, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}}})
	}

	if len(clauses) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

// Matches evaluates f against g in memory with the same semantics as
// BuildGrievanceQuery.
func (f GrievanceFilter) Matches(g *models.Grievance) bool {
	if !f.Scope.Allows(g) {
		return false
	}
	if f.UserID != "" && g.UserID != f.UserID {
		return false
	}
	if f.Status != "" && g.Status != f.Status {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, g.Status) {
		return false
	}
	if f.Category != "" && g.Category != f.Category {
		return false
	}
	if f.DepartmentID != "" && g.DepartmentID != f.DepartmentID {
		return false
	}
	switch f.AssignedTo {
	case "":
	case AssignedAny:
		if g.AssignedTo == nil {
			return false
		}
	case AssignedNone:
		if g.AssignedTo != nil {
			return false
		}
	default:
		if g.AssigneeID() != f.AssignedTo {
			return false
		}
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(g.Title), s) && !strings.Contains(strings.ToLower(g.Description), s) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// EnsureIndexes creates the indexes the list and queue queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.Collection(GrievanceCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "department", Value: 1}, {Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(WorkProgressCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "grievance", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}
