package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/skill-forge/skillforge-hr/internal/attempt"
	"github.com/skill-forge/skillforge-hr/internal/config"
	"github.com/skill-forge/skillforge-hr/internal/rbac"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

// asUser injects an authenticated identity, standing in for the JWT
// middleware.
func asUser(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := rbac.WithSubject(r.Context(), sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func testRouter(t *testing.T, sub, role string) (*chi.Mux, *attempt.Service, testdef.Store) {
	t.Helper()
	tests := testdef.NewMemoryStore()
	svc := attempt.NewService(attempt.NewMemoryStore(), tests,
		config.ScoringPolicy{PassThreshold: 0.6, TextPolicy: config.TextPolicyManual}, nil, nil)

	r := chi.NewRouter()
	r.Use(asUser(sub, role))
	r.Get("/tests/{testID}", GetTestHandler(tests))
	r.Get("/tests", ListTestsHandler(tests))
	r.Post("/tests/{testID}/attempts", StartAttemptHandler(svc))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(svc))
	r.Get("/attempts/{attemptID}", GetAttemptHandler(svc))
	return r, svc, tests
}

func seedPublished(t *testing.T, tests testdef.Store) {
	t.Helper()
	def := testdef.Test{
		ID:              "net-screen",
		Title:           "Networking screening",
		DurationMinutes: 10,
		Questions: []testdef.Question{
			{ID: "q1", Content: "Default HTTPS port?", Type: testdef.TypeMultipleChoice, Score: 10,
				Options: []testdef.AnswerOption{{ID: "A", Content: "443", IsCorrect: true}, {ID: "B", Content: "80"}}},
		},
	}
	if err := tests.PutTest(context.Background(), def); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := tests.SetPublished(context.Background(), def.ID, true); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestGetTestRedactionOverHTTP(t *testing.T) {
	r, _, tests := testRouter(t, "cand-1", "candidate")
	seedPublished(t, tests)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/tests/net-screen", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if strings.Contains(body, "is_correct") || strings.Contains(body, "correct_answer") {
		t.Fatalf("answer key leaked: %s", body)
	}
}

func TestGetTestDraftHiddenFromCandidates(t *testing.T) {
	r, _, tests := testRouter(t, "cand-1", "candidate")
	seedPublished(t, tests)
	if err := tests.SetPublished(context.Background(), "net-screen", false); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/tests/net-screen", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("draft visible to candidate: %d", rec.Code)
	}

	hr, _, hrTests := testRouter(t, "hr-1", "hr")
	seedPublished(t, hrTests)
	if err := hrTests.SetPublished(context.Background(), "net-screen", false); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	hr.ServeHTTP(rec, httptest.NewRequest("GET", "/tests/net-screen", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("draft hidden from hr: %d", rec.Code)
	}
}

func TestAttemptLifecycleOverHTTP(t *testing.T) {
	r, _, tests := testRouter(t, "cand-1", "candidate")
	seedPublished(t, tests)

	// start
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/tests/net-screen/attempts", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rec.Code, rec.Body)
	}
	var started attempt.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}

	// submit
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/attempts/"+started.ID+"/submit",
		strings.NewReader(`{"answers":{"q1":"A","ghost":"Z"}}`))
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body)
	}
	var res attempt.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.TotalScore != 10 || res.MaxScore != 10 || !res.IsPassed {
		t.Fatalf("result: %+v", res)
	}

	// double submit -> 409
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/attempts/"+started.ID+"/submit",
		strings.NewReader(`{"answers":{}}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("double submit: %d", rec.Code)
	}

	// read back
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts/"+started.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
}

func TestSubmitErrorStatuses(t *testing.T) {
	r, svc, tests := testRouter(t, "cand-1", "candidate")
	seedPublished(t, tests)
	a, err := svc.Start(context.Background(), "net-screen", "someone-else")
	if err != nil {
		t.Fatal(err)
	}

	// foreign attempt -> 403
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/attempts/"+a.ID+"/submit",
		strings.NewReader(`{"answers":{}}`)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign submit: %d", rec.Code)
	}

	// unknown attempt -> 404
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/attempts/ghost/submit",
		strings.NewReader(`{"answers":{}}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown attempt: %d", rec.Code)
	}

	// non-string answer values -> 400
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/attempts/"+a.ID+"/submit",
		strings.NewReader(`{"answers":{"q1":42}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad payload: %d", rec.Code)
	}

	// starting a missing test -> 404
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/tests/ghost/attempts", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing test: %d", rec.Code)
	}
}

func TestListTestsHidesDraftsFromTakers(t *testing.T) {
	r, _, tests := testRouter(t, "cand-1", "candidate")
	seedPublished(t, tests)
	draft := testdef.Test{
		ID: "draft-1", Title: "Draft", DurationMinutes: 5,
		Questions: []testdef.Question{{ID: "q", Content: "?", Type: testdef.TypeText, Score: 1}},
	}
	if err := tests.PutTest(context.Background(), draft); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/tests", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var list []testdef.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "net-screen" {
		t.Fatalf("draft leaked into candidate list: %+v", list)
	}
}
