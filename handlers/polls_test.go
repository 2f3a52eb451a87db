// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestCreatePoll(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	admin := testutil.Admin("admin-1")

	valid := models.CreatePollRequest{
		Title:       "Test Poll",
		Description: "Test description",
		Candidates:  []models.CandidateSpec{{Name: "A"}, {Name: "B"}},
		StartDate:   now,
		EndDate:     now.Add(24 * time.Hour),
		PollType:    models.PollTypeSingle,
	}
	oneCandidate := valid
	oneCandidate.Candidates = valid.Candidates[:1]
	backwards := valid
	backwards.EndDate = now.Add(-time.Hour)

	tests := []struct {
		name           string
		identity       models.Identity
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, poll *models.Poll)
	}{
		{
			name:           "valid poll creation",
			identity:       admin,
			requestBody:    valid,
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, poll *models.Poll) {
				if poll.ID == "" {
					t.Error("Expected non-empty id")
				}
				if poll.CreatedBy != admin.ID {
					t.Errorf("Expected created_by %q, got %q", admin.ID, poll.CreatedBy)
				}
				if len(poll.Candidates) != 2 || poll.Candidates[0].ID == "" {
					t.Errorf("Expected 2 candidates with IDs, got %+v", poll.Candidates)
				}

				var status string
				err := env.db.QueryRow("SELECT status FROM poll WHERE id = $1", poll.ID).Scan(&status)
				if err != nil {
					t.Fatalf("Failed to query poll: %v", err)
				}
				if status != string(models.StatusActive) {
					t.Errorf("Expected status 'active', got '%s'", status)
				}
			},
		},
		{
			name:           "voter cannot create",
			identity:       testutil.Voter("v1"),
			requestBody:    valid,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "single candidate",
			identity:       admin,
			requestBody:    oneCandidate,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "end before start",
			identity:       admin,
			requestBody:    backwards,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			identity:       admin,
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			var err error

			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/polls", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = asIdentity(req, tt.identity)
			w := httptest.NewRecorder()

			env.poll.CreatePoll(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var poll models.Poll
				if err := json.NewDecoder(w.Body).Decode(&poll); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				tt.checkResponse(t, &poll)
			}
		})
	}
}

func TestGetPoll(t *testing.T) {
	env := newTestEnv(t)
	poll := testutil.CreateTestPoll(t, env.db, testutil.PollFixture{Title: "Lunch"})

	req := httptest.NewRequest("GET", "/polls/"+poll.ID, nil)
	req.SetPathValue("id", poll.ID)
	w := httptest.NewRecorder()
	env.poll.GetPoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var got models.Poll
	testutil.AssertJSON(t, w, &got)
	if got.Title != "Lunch" || len(got.Candidates) != 2 {
		t.Errorf("Unexpected poll: %+v", got)
	}

	req = httptest.NewRequest("GET", "/polls/missing", nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	env.poll.GetPoll(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestUpdatePoll(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.Admin("admin-1")

	tests := []struct {
		name           string
		identity       models.Identity
		body           string
		ifMatch        string
		withVote       bool
		expectedStatus int
	}{
		{"rename", owner, `{"title":"Renamed"}`, "", false, http.StatusOK},
		{"rename with matching version", owner, `{"title":"Renamed","version":1}`, "", false, http.StatusOK},
		{"if-match header", owner, `{"title":"Renamed"}`, `"1"`, false, http.StatusOK},
		{"stale if-match", owner, `{"title":"Renamed"}`, "5", false, http.StatusPreconditionFailed},
		{"bad if-match", owner, `{"title":"Renamed"}`, "abc", false, http.StatusBadRequest},
		{"not the owner", testutil.Admin("admin-2"), `{"title":"Renamed"}`, "", false, http.StatusForbidden},
		{"candidates after votes", owner, `{"candidates":[{"name":"X"},{"name":"Y"}]}`, "", true, http.StatusConflict},
		{"description after votes", owner, `{"description":"still editable"}`, "", true, http.StatusOK},
		{"empty title", owner, `{"title":"  "}`, "", false, http.StatusBadRequest},
		{"invalid JSON", owner, `{`, "", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll := testutil.CreateTestPoll(t, env.db, testutil.PollFixture{Owner: owner.ID})
			if tt.withVote {
				_, err := env.voting.admission.SubmitBallot(t.Context(), poll.ID, testutil.Voter("v1"),
					[]string{poll.Candidates[0].ID})
				if err != nil {
					t.Fatalf("Failed to cast vote: %v", err)
				}
			}

			req := httptest.NewRequest("PATCH", "/polls/"+poll.ID, strings.NewReader(tt.body))
			req.SetPathValue("id", poll.ID)
			if tt.ifMatch != "" {
				req.Header.Set("If-Match", tt.ifMatch)
			}
			req = asIdentity(req, tt.identity)
			w := httptest.NewRecorder()

			env.poll.UpdatePoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if w.Code == http.StatusOK {
				var got models.Poll
				testutil.AssertJSON(t, w, &got)
				if got.Version != 2 {
					t.Errorf("Expected version 2, got %d", got.Version)
				}
			}
		})
	}
}

func TestClosePoll(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.Admin("admin-1")
	poll := testutil.CreateTestPoll(t, env.db, testutil.PollFixture{Owner: owner.ID})

	closeAs := func(identity models.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/polls/"+poll.ID+"/close", nil)
		req.SetPathValue("id", poll.ID)
		w := httptest.NewRecorder()
		env.poll.ClosePoll(w, asIdentity(req, identity))
		return w
	}

	testutil.AssertStatus(t, closeAs(testutil.Admin("admin-2")), http.StatusForbidden)

	w := closeAs(owner)
	testutil.AssertStatus(t, w, http.StatusOK)
	var closed models.Poll
	testutil.AssertJSON(t, w, &closed)
	if closed.Status != models.StatusEnded {
		t.Errorf("Expected status 'ended', got '%s'", closed.Status)
	}

	testutil.AssertStatus(t, closeAs(owner), http.StatusConflict)
}

func TestListPolls(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()
	testutil.CreateTestPoll(t, env.db, testutil.PollFixture{Title: "mine-open", Owner: "admin-1"})
	testutil.CreateTestPoll(t, env.db, testutil.PollFixture{
		Title: "mine-later", Owner: "admin-1",
		StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour),
	})
	testutil.CreateTestPoll(t, env.db, testutil.PollFixture{
		Title: "theirs", Owner: "admin-2", Visibility: models.VisibilityRestricted,
	})

	tests := []struct {
		name           string
		query          string
		identity       *models.Identity
		expectedStatus int
		expectedCount  int
	}{
		{"all", "", nil, http.StatusOK, 3},
		{"by creator", "?created_by=admin-2", nil, http.StatusOK, 1},
		{"mine", "?mine=true", &models.Identity{ID: "admin-1", Role: models.RoleAdmin}, http.StatusOK, 2},
		{"mine without identity", "?mine=true", nil, http.StatusUnauthorized, 0},
		{"open phase", "?phase=open", nil, http.StatusOK, 2},
		{"scheduled phase", "?phase=scheduled", nil, http.StatusOK, 1},
		{"restricted", "?visibility=restricted", nil, http.StatusOK, 1},
		{"bad phase", "?phase=someday", nil, http.StatusBadRequest, 0},
		{"bad status", "?status=paused", nil, http.StatusBadRequest, 0},
		{"bad visibility", "?visibility=hidden", nil, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls"+tt.query, nil)
			if tt.identity != nil {
				req = asIdentity(req, *tt.identity)
			}
			w := httptest.NewRecorder()

			env.poll.ListPolls(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp models.PollListResponse
			testutil.AssertJSON(t, w, &resp)
			if len(resp.Polls) != tt.expectedCount {
				t.Errorf("Expected %d polls, got %d", tt.expectedCount, len(resp.Polls))
			}
		})
	}
}

func TestGetPhase(t *testing.T) {
	env := newTestEnv(t)
	now := env.clock.Now()

	tests := []struct {
		name     string
		fixture  testutil.PollFixture
		expected models.Phase
		summary  string
	}{
		{"scheduled", testutil.PollFixture{StartDate: now.Add(3 * time.Hour), EndDate: now.Add(5 * time.Hour)}, models.PhaseScheduled, "opens"},
		{"open", testutil.PollFixture{StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}, models.PhaseOpen, "closes"},
		{"closed", testutil.PollFixture{StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Hour)}, models.PhaseClosed, "closed"},
		{"ended early", testutil.PollFixture{Status: models.StatusEnded}, models.PhaseClosed, "ended early"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll := testutil.CreateTestPoll(t, env.db, tt.fixture)

			req := httptest.NewRequest("GET", "/polls/"+poll.ID+"/phase", nil)
			req.SetPathValue("id", poll.ID)
			w := httptest.NewRecorder()
			env.poll.GetPhase(w, req)

			testutil.AssertStatus(t, w, http.StatusOK)
			var resp models.PhaseResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Phase != tt.expected {
				t.Errorf("Expected phase %s, got %s", tt.expected, resp.Phase)
			}
			if !strings.HasPrefix(resp.Summary, tt.summary) {
				t.Errorf("Expected summary starting with %q, got %q", tt.summary, resp.Summary)
			}
			if !resp.Now.Equal(now) {
				t.Errorf("Expected now %s, got %s", now, resp.Now)
			}
		})
	}
}

func TestPollVersionIncrements(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.Admin("admin-1")
	poll := testutil.CreateTestPoll(t, env.db, testutil.PollFixture{Owner: owner.ID})

	for want := 2; want <= 4; want++ {
		body := `{"description":"rev","version":` + strconv.Itoa(want-1) + `}`
		req := httptest.NewRequest("PATCH", "/polls/"+poll.ID, strings.NewReader(body))
		req.SetPathValue("id", poll.ID)
		w := httptest.NewRecorder()
		env.poll.UpdatePoll(w, asIdentity(req, owner))

		testutil.AssertStatus(t, w, http.StatusOK)
		var got models.Poll
		testutil.AssertJSON(t, w, &got)
		if got.Version != want {
			t.Errorf("Expected version %d, got %d", want, got.Version)
		}
	}
}
