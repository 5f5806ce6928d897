package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/auth"
	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/schedule"
	"github.com/friendsincode/matchday/internal/scheduler"
	"github.com/friendsincode/matchday/internal/scheduling"
)

// Monday 2026-10-19.
var fixedNow = clock.Fixed(time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC))

func newTestRouter(t *testing.T, secret []byte) http.Handler {
	t.Helper()
	svc := scheduler.New(scheduling.NewDurationScheduler(), scheduling.NewMatchScheduler(), nil, nil, fixedNow, zerolog.Nop())
	a := New(svc, schedule.NewExportService(zerolog.Nop()), secret, zerolog.Nop())
	r := chi.NewRouter()
	a.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(t, nil), http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rr.Code)
	}
}

func TestScheduleActivitiesJSON(t *testing.T) {
	body := `{"activities": [
		{"name": "A", "priority": 1, "duration": 10, "resources": ["R1"]},
		{"name": "B", "priority": 2, "duration": 5, "resources": ["R1"]},
		{"name": "C", "priority": 3, "duration": 7, "resources": ["R2"]}
	]}`
	rr := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/activities/schedule", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		RunID   string `json:"run_id"`
		Results []struct {
			Start int64 `json:"start"`
			End   int64 `json:"end"`
		} `json:"results"`
		Timeline map[string]int64 `json:"timeline"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID == "" {
		t.Error("run_id missing")
	}
	if len(resp.Results) != 3 || resp.Results[1].Start != 10 || resp.Results[1].End != 15 {
		t.Errorf("results = %+v, want B at 10-15", resp.Results)
	}
	if resp.Timeline["R1"] != 15 || resp.Timeline["R2"] != 7 {
		t.Errorf("timeline = %v, want R1:15 R2:7", resp.Timeline)
	}
}

func TestScheduleActivitiesText(t *testing.T) {
	body := `{"activities": [{"name": "Paint", "priority": 1, "duration": 4, "resources": ["R1", "R2"]}]}`
	rr := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/activities/schedule?format=text", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	want := "Activity: Paint, Start: 0, End: 4, Priority: 1, Resources: R1, R2\n"
	if rr.Body.String() != want {
		t.Errorf("body = %q, want %q", rr.Body.String(), want)
	}
}

func TestScheduleMatchesFormats(t *testing.T) {
	body := `{"matches": [
		{"team_a": "CSK", "team_b": "MI", "venue": "Chennai", "broadcaster": "Star", "security": "G4S", "priority": 9}
	]}`

	tests := []struct {
		name        string
		query       string
		contentType string
		contains    string
	}{
		{"json", "", "application/json", `"date":"2026-10-21"`},
		{"text", "?format=text", "text/plain; charset=utf-8", "Priority: 9, CSK vs MI at Chennai, Broadcasting Team: Star, Security Team: G4S, 21-Oct-2026"},
		{"ical", "?format=ical", "text/calendar; charset=utf-8", "DTSTART;VALUE=DATE:20261021"},
		{"start date", "?start_date=2026-11-02", "application/json", `"date":"2026-11-04"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/matches/schedule"+tt.query, body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("body = %s, want it to contain %q", rr.Body.String(), tt.contains)
			}
		})
	}
}

func TestScheduleMatchesAroundExisting(t *testing.T) {
	body := `{
		"matches": [{"team_a": "CSK", "team_b": "MI", "venue": "Chennai", "priority": 5}],
		"existing": [{"team_a": "CSK", "team_b": "RR", "venue": "Jaipur", "priority": 1, "date": "2026-10-21"}]
	}`
	rr := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/matches/schedule", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"date":"2026-10-23"`) {
		t.Errorf("body = %s, want CSK rested until 2026-10-23", rr.Body.String())
	}
}

func TestScheduleErrors(t *testing.T) {
	tooMany := make([]string, scheduling.DefaultSeasonLength+1)
	for i := range tooMany {
		tooMany[i] = `{"team_a": "A", "team_b": "B", "venue": "V"}`
	}

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/api/v1/matches/schedule", `{"matches": [`, http.StatusBadRequest, "invalid_json"},
		{"missing venue", "/api/v1/matches/schedule", `{"matches": [{"team_a": "A", "team_b": "B"}]}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"batch too large", "/api/v1/matches/schedule", `{"matches": [` + strings.Join(tooMany, ",") + `]}`, http.StatusUnprocessableEntity, "batch_too_large"},
		{"zero duration", "/api/v1/activities/schedule", `{"activities": [{"name": "A", "duration": 0}]}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"bad order", "/api/v1/activities/schedule", `{"activities": [], "order": "sideways"}`, http.StatusBadRequest, "invalid_order"},
		{"bad format", "/api/v1/matches/schedule?format=pdf", `{"matches": []}`, http.StatusBadRequest, "unsupported_format"},
		{"bad start date", "/api/v1/matches/schedule?start_date=tomorrow", `{"matches": []}`, http.StatusBadRequest, "invalid_query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(t, nil), http.MethodPost, tt.target, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body.String())
			}
			var resp map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp["error"] != tt.code {
				t.Errorf("error = %v, want %q", resp["error"], tt.code)
			}
		})
	}
}

func TestStagingFlow(t *testing.T) {
	h := newTestRouter(t, nil)

	for _, m := range []string{
		`{"team_a": "CSK", "team_b": "MI", "venue": "Chennai", "priority": 3}`,
		`{"team_a": "RCB", "team_b": "KKR", "venue": "Bengaluru", "priority": 8}`,
	} {
		if rr := do(t, h, http.MethodPost, "/api/v1/matches", m); rr.Code != http.StatusCreated {
			t.Fatalf("POST /matches = %d, body = %s", rr.Code, rr.Body.String())
		}
	}
	if rr := do(t, h, http.MethodPost, "/api/v1/matches", `{"team_a": "GT"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("POST invalid match = %d, want 422", rr.Code)
	}

	rr := do(t, h, http.MethodGet, "/api/v1/matches", "")
	if !strings.Contains(rr.Body.String(), `"count":2`) {
		t.Fatalf("GET /matches = %s, want count 2", rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/v1/matches/staged/schedule?format=text", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("staged schedule = %d, body = %s", rr.Code, rr.Body.String())
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Priority: 8, RCB vs KKR") {
		t.Errorf("staged schedule body = %q, want RCB first", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/api/v1/matches", "")
	if !strings.Contains(rr.Body.String(), `"count":0`) {
		t.Errorf("GET /matches after run = %s, want count 0", rr.Body.String())
	}

	do(t, h, http.MethodPost, "/api/v1/activities", `{"name": "A", "priority": 1, "duration": 3}`)
	rr = do(t, h, http.MethodDelete, "/api/v1/activities", "")
	if !strings.Contains(rr.Body.String(), `"removed":1`) {
		t.Errorf("DELETE /activities = %s, want removed 1", rr.Body.String())
	}
}

func TestRoutesRequireTokenWhenConfigured(t *testing.T) {
	secret := []byte("test-secret")
	h := newTestRouter(t, secret)

	if rr := do(t, h, http.MethodGet, "/api/v1/matches", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("GET without token = %d, want 401", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("GET /healthz without token = %d, want 200", rr.Code)
	}

	viewer, _ := auth.Issue(secret, "reader", []string{auth.RoleViewer}, time.Hour)
	if rr := do(t, h, http.MethodGet, "/api/v1/matches", "", "Authorization", "Bearer "+viewer); rr.Code != http.StatusOK {
		t.Errorf("GET as viewer = %d, want 200", rr.Code)
	}
	body := `{"team_a": "CSK", "team_b": "MI", "venue": "Chennai"}`
	if rr := do(t, h, http.MethodPost, "/api/v1/matches", body, "Authorization", "Bearer "+viewer); rr.Code != http.StatusForbidden {
		t.Errorf("POST as viewer = %d, want 403", rr.Code)
	}

	planner, _ := auth.Issue(secret, "ops", []string{auth.RolePlanner}, time.Hour)
	if rr := do(t, h, http.MethodPost, "/api/v1/matches", body, "Authorization", "Bearer "+planner); rr.Code != http.StatusCreated {
		t.Errorf("POST as planner = %d, want 201", rr.Code)
	}
}
