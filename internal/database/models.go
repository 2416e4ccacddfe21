package database

import "time"

// User is a registered dashboard user.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Respondent captures the anonymous demographics attached to a response.
type Respondent struct {
	AgeGroup string `bson:"age_group" json:"age_group"`
	Region   string `bson:"region" json:"region"`
	Parity   int    `bson:"parity" json:"parity"`
}

// Answer is a single answered survey question.
type Answer struct {
	QuestionID string `bson:"question_id" json:"question_id"`
	Value      string `bson:"value" json:"value"`
}

// SurveyResponse is one submitted survey.
type SurveyResponse struct {
	ID          string     `bson:"_id" json:"id"`
	Respondent  Respondent `bson:"respondent" json:"respondent"`
	Answers     []Answer   `bson:"answers" json:"answers"`
	SubmittedAt time.Time  `bson:"submitted_at" json:"submitted_at"`
}

// BucketCount is one bucket of an aggregation result.
type BucketCount struct {
	Value string `bson:"_id" json:"value"`
	Count int64  `bson:"count" json:"count"`
}

// AnalyticsSummary aggregates the response collection for the dashboard.
type AnalyticsSummary struct {
	TotalResponses int64         `json:"total_responses"`
	LastSevenDays  int64         `json:"last_seven_days"`
	ByAgeGroup     []BucketCount `json:"by_age_group"`
	ByRegion       []BucketCount `json:"by_region"`
}
