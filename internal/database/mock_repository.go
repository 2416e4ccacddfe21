package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockResponseStore is an in-memory response store for testing.
type MockResponseStore struct {
	mu        sync.RWMutex
	responses map[string]*SurveyResponse

	// ErrorOnNextCall is returned and cleared by the next store call,
	// for exercising error paths.
	ErrorOnNextCall error
}

// NewMockResponseStore creates an empty mock response store.
func NewMockResponseStore() *MockResponseStore {
	return &MockResponseStore{responses: make(map[string]*SurveyResponse)}
}

func (m *MockResponseStore) checkError() error {
	if m.ErrorOnNextCall != nil {
		err := m.ErrorOnNextCall
		m.ErrorOnNextCall = nil
		return err
	}
	return nil
}

// Insert stores a response.
func (m *MockResponseStore) Insert(ctx context.Context, resp *SurveyResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(); err != nil {
		return err
	}
	stored := *resp
	m.responses[resp.ID] = &stored
	return nil
}

// GetByID fetches a response.
func (m *MockResponseStore) GetByID(ctx context.Context, id string) (*SurveyResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}
	resp, ok := m.responses[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *resp
	return &copied, nil
}

// List returns a page of responses, newest first.
func (m *MockResponseStore) List(ctx context.Context, page, perPage int) ([]SurveyResponse, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, 0, err
	}

	all := make([]SurveyResponse, 0, len(m.responses))
	for _, resp := range m.responses {
		all = append(all, *resp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].SubmittedAt.After(all[j].SubmittedAt)
	})

	total := int64(len(all))
	start := (page - 1) * perPage
	if start >= len(all) {
		return []SurveyResponse{}, total, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// Summary aggregates the stored responses.
func (m *MockResponseStore) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{TotalResponses: int64(len(m.responses))}
	weekAgo := time.Now().AddDate(0, 0, -7)
	byAge := map[string]int64{}
	byRegion := map[string]int64{}
	for _, resp := range m.responses {
		if resp.SubmittedAt.After(weekAgo) {
			summary.LastSevenDays++
		}
		byAge[resp.Respondent.AgeGroup]++
		byRegion[resp.Respondent.Region]++
	}
	summary.ByAgeGroup = bucketize(byAge)
	summary.ByRegion = bucketize(byRegion)
	return summary, nil
}

// QuestionDistribution counts answer values for one question.
func (m *MockResponseStore) QuestionDistribution(ctx context.Context, questionID string) ([]BucketCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, resp := range m.responses {
		for _, ans := range resp.Answers {
			if ans.QuestionID == questionID {
				counts[ans.Value]++
			}
		}
	}
	return bucketize(counts), nil
}

func bucketize(counts map[string]int64) []BucketCount {
	buckets := make([]BucketCount, 0, len(counts))
	for value, count := range counts {
		buckets = append(buckets, BucketCount{Value: value, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
	return buckets
}

// MockUserStore is an in-memory user store for testing.
type MockUserStore struct {
	mu    sync.RWMutex
	users map[string]*User

	ErrorOnNextCall error
}

// NewMockUserStore creates an empty mock user store.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[string]*User)}
}

func (m *MockUserStore) checkError() error {
	if m.ErrorOnNextCall != nil {
		err := m.ErrorOnNextCall
		m.ErrorOnNextCall = nil
		return err
	}
	return nil
}

// Create stores a user, enforcing email uniqueness.
func (m *MockUserStore) Create(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError(); err != nil {
		return err
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// GetByEmail fetches a user by email.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// GetByID fetches a user by ID.
func (m *MockUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkError(); err != nil {
		return nil, err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}
