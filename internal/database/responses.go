package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const responsesCollection = "responses"

// ResponseRepository persists survey responses.
type ResponseRepository struct {
	coll *mongo.Collection
}

// NewResponseRepository creates a repository over the responses collection.
func NewResponseRepository(c *Client) *ResponseRepository {
	return &ResponseRepository{coll: c.Database().Collection(responsesCollection)}
}

// Insert stores a new survey response.
func (r *ResponseRepository) Insert(ctx context.Context, resp *SurveyResponse) error {
	if _, err := r.coll.InsertOne(ctx, resp); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// GetByID fetches one response, returning ErrNotFound if absent.
func (r *ResponseRepository) GetByID(ctx context.Context, id string) (*SurveyResponse, error) {
	var resp SurveyResponse
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get response %s: %w", id, err)
	}
	return &resp, nil
}

// List returns one page of responses, newest first, plus the total count.
func (r *ResponseRepository) List(ctx context.Context, page, perPage int) ([]SurveyResponse, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	defer cursor.Close(ctx)

	responses := []SurveyResponse{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, 0, fmt.Errorf("decode responses: %w", err)
	}
	return responses, total, nil
}

// Summary aggregates the collection for the analytics dashboard.
func (r *ResponseRepository) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	recent, err := r.coll.CountDocuments(ctx, bson.M{"submitted_at": bson.M{"$gte": weekAgo}})
	if err != nil {
		return nil, fmt.Errorf("count recent responses: %w", err)
	}

	byAge, err := r.groupBy(ctx, "$respondent.age_group")
	if err != nil {
		return nil, err
	}
	byRegion, err := r.groupBy(ctx, "$respondent.region")
	if err != nil {
		return nil, err
	}

	return &AnalyticsSummary{
		TotalResponses: total,
		LastSevenDays:  recent,
		ByAgeGroup:     byAge,
		ByRegion:       byRegion,
	}, nil
}

// QuestionDistribution returns how often each answer value occurs for one
// question.
func (r *ResponseRepository) QuestionDistribution(ctx context.Context, questionID string) ([]BucketCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$answers"}},
		bson.D{{Key: "$match", Value: bson.M{"answers.question_id": questionID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$answers.value",
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *ResponseRepository) groupBy(ctx context.Context, field string) ([]BucketCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *ResponseRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]BucketCount, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate responses: %w", err)
	}
	defer cursor.Close(ctx)

	buckets := []BucketCount{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode aggregation: %w", err)
	}
	return buckets, nil
}
