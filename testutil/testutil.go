// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/models"
)

// TestSecret signs identity tokens in tests.
const TestSecret = "test-identity-secret"

// SetupTestDB opens a fresh in-memory sqlite database with the full schema.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.DialectSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    ":memory:",
		DatabaseType:   string(db.DialectSQLite),
		IdentitySecret: TestSecret,
	}
}

func Admin(id string) models.Identity {
	return models.Identity{ID: id, Role: models.RoleAdmin, EmailVerified: true}
}

func Voter(id string) models.Identity {
	return models.Identity{ID: id, Role: models.RoleVoter, EmailVerified: true}
}

// IdentityToken signs identity with TestSecret, as the auth provider would.
func IdentityToken(t *testing.T, identity models.Identity) string {
	t.Helper()
	token, err := auth.SignIdentity(identity, TestSecret)
	if err != nil {
		t.Fatalf("Failed to sign identity: %v", err)
	}
	return token
}

// IdentityHeader returns request headers carrying identity.
func IdentityHeader(t *testing.T, identity models.Identity) map[string]string {
	t.Helper()
	return map[string]string{"X-Identity-Token": IdentityToken(t, identity)}
}

// PollFixture describes a poll inserted directly into the database. Zero
// fields get defaults: an open single-choice public poll owned by "admin-1"
// with candidates "A" and "B", open from an hour ago to an hour from now.
type PollFixture struct {
	Title      string
	Owner      string
	PollType   models.PollType
	Visibility models.Visibility
	Status     models.Status
	StartDate  time.Time
	EndDate    time.Time
	Candidates []string
}

// CreateTestPoll inserts a poll bypassing the store's validation, so tests
// can place polls anywhere in their lifecycle.
func CreateTestPoll(t *testing.T, conn *sql.DB, f PollFixture) models.Poll {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if f.Title == "" {
		f.Title = "Test Poll"
	}
	if f.Owner == "" {
		f.Owner = "admin-1"
	}
	if f.PollType == "" {
		f.PollType = models.PollTypeSingle
	}
	if f.Visibility == "" {
		f.Visibility = models.VisibilityPublic
	}
	if f.Status == "" {
		f.Status = models.StatusActive
	}
	if f.StartDate.IsZero() {
		f.StartDate = now.Add(-time.Hour)
	}
	if f.EndDate.IsZero() {
		f.EndDate = now.Add(time.Hour)
	}
	if f.Candidates == nil {
		f.Candidates = []string{"A", "B"}
	}

	pollID, _ := auth.GenerateID(16)
	poll := models.Poll{
		ID:         pollID,
		Title:      f.Title,
		StartDate:  f.StartDate.UTC(),
		EndDate:    f.EndDate.UTC(),
		PollType:   f.PollType,
		Visibility: f.Visibility,
		Status:     f.Status,
		CreatedBy:  f.Owner,
		CreatedAt:  now,
		Version:    1,
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, title, description, poll_type, visibility, status,
		                  start_date, end_date, created_by, created_at, total_votes, version)
		VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8, $9, 0, 1)
	`, poll.ID, poll.Title, string(poll.PollType), string(poll.Visibility), string(poll.Status),
		poll.StartDate, poll.EndDate, poll.CreatedBy, poll.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, name := range f.Candidates {
		candidateID, _ := auth.GenerateID(12)
		_, err := conn.Exec(`
			INSERT INTO candidate (id, poll_id, name, description, votes, ordinal)
			VALUES ($1, $2, $3, '', 0, $4)
		`, candidateID, poll.ID, name, i)
		if err != nil {
			t.Fatalf("Failed to create test candidate: %v", err)
		}
		poll.Candidates = append(poll.Candidates, models.Candidate{ID: candidateID, Name: name, Position: i})
	}

	return poll
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
