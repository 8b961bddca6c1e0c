package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mindscreen/mindscreen/internal/middleware"
	"github.com/mindscreen/mindscreen/internal/models"
	"github.com/mindscreen/mindscreen/pkg/logger"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	mux := http.NewServeMux()
	NewRouter(opts).Register(mux)
	srv := httptest.NewServer(middleware.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := middleware.SignToken("u1", "admin@example.com", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestListInstruments(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var resp struct {
		Instruments []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Items    int    `json:"items"`
			MaxTotal int    `json:"max_total"`
		} `json:"instruments"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/instruments", "", nil, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(resp.Instruments) != 3 {
		t.Fatalf("got %d instruments, want 3", len(resp.Instruments))
	}
	seen := map[string]int{}
	for _, in := range resp.Instruments {
		seen[in.ID] = in.Items
		if in.Name == "" {
			t.Fatalf("instrument %s has empty name", in.ID)
		}
	}
	if seen["gad7"] != 7 || seen["phq9"] != 9 || seen["pss10"] != 10 {
		t.Fatalf("unexpected item counts: %v", seen)
	}
}

func TestInstrumentItems(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var resp struct {
		Instrument string `json:"instrument"`
		Items      []struct {
			Code          string `json:"code"`
			Stem          string `json:"stem"`
			ReverseScored bool   `json:"reverse_scored"`
		} `json:"items"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/instruments/pss10/items", "", nil, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(resp.Items) != 10 {
		t.Fatalf("got %d items, want 10", len(resp.Items))
	}
	if !resp.Items[3].ReverseScored {
		t.Fatal("pss10 item 4 should be reverse scored")
	}
	if resp.Items[0].Stem == "" {
		t.Fatal("item stem should not be empty")
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/instruments/nope/items", "", nil, nil); status != http.StatusNotFound {
		t.Fatalf("unknown instrument status = %d, want 404", status)
	}
}

func TestSubmitAndFetchAssessment(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var rec models.AssessmentRecord
	status := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "gad7",
		"responses":  []int{2, 2, 2, 2, 2, 2, 2},
	}, &rec)
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", status)
	}
	if rec.Total != 14 || rec.Severity != "Moderate Anxiety" || rec.RiskTier != "High" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	var got models.AssessmentRecord
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+rec.ID, "", nil, &got); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if got.ID != rec.ID || got.Total != 14 {
		t.Fatalf("fetched record mismatch: %+v", got)
	}

	var list struct {
		Assessments []models.AssessmentRecord `json:"assessments"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/assessments", adminToken(t), nil, &list); status != http.StatusOK {
		t.Fatalf("history status = %d", status)
	}
	if len(list.Assessments) != 1 {
		t.Fatalf("history length = %d, want 1", len(list.Assessments))
	}
}

func TestHistoryRequiresAuth(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument":       "gad7",
		"responses":        []int{1, 1, 1, 1, 1, 1, 1},
		"participant_name": "Nabila",
	}, nil)

	// The history list carries names and raw responses; anonymous callers
	// must not see it.
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/assessments", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous history status = %d, want 401", status)
	}

	var list struct {
		Assessments []models.AssessmentRecord `json:"assessments"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/assessments", adminToken(t), nil, &list); status != http.StatusOK {
		t.Fatalf("authenticated history status = %d", status)
	}
	if len(list.Assessments) != 1 || list.Assessments[0].ParticipantName != "Nabila" {
		t.Fatalf("unexpected history: %+v", list.Assessments)
	}
}

func TestSubmitRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	status := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "nope",
		"responses":  []int{1},
	}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown instrument status = %d, want 404", status)
	}

	status = doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "gad7",
		"responses":  []int{9, 0, 0, 0, 0, 0, 0},
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("out-of-range response status = %d, want 400", status)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/assessments", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed json status = %d, want 400", resp.StatusCode)
	}
}

func TestClearAssessmentsRequiresAuth(t *testing.T) {
	store := newMemoryStore()
	srv := newTestServer(t, Options{Store: store})

	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "gad7",
		"responses":  []int{0, 0, 0, 0, 0, 0, 0},
	}, nil)

	if status := doJSON(t, http.MethodDelete, srv.URL+"/api/assessments", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous delete status = %d, want 401", status)
	}

	var resp struct {
		Deleted int `json:"deleted"`
	}
	if status := doJSON(t, http.MethodDelete, srv.URL+"/api/assessments", adminToken(t), nil, &resp); status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	if resp.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", resp.Deleted)
	}
	if len(store.audit) != 1 || store.audit[0].Action != "clear_assessments" {
		t.Fatalf("expected clear audit entry, got %+v", store.audit)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "phq9",
		"responses":  []int{3, 3, 3, 3, 3, 3, 3, 3, 3},
	}, nil)

	var resp struct {
		TotalAssessments int            `json:"total_assessments"`
		TierCounts       map[string]int `json:"tier_counts"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/dashboard", "", nil, &resp); status != http.StatusOK {
		t.Fatalf("dashboard status = %d", status)
	}
	if resp.TotalAssessments != 1 {
		t.Fatalf("total = %d, want 1", resp.TotalAssessments)
	}
	if resp.TierCounts["Critical"] != 1 {
		t.Fatalf("tier counts = %v, want Critical:1", resp.TierCounts)
	}
}

func TestAlphaEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/metrics/alpha", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("missing instrument status = %d, want 400", status)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/metrics/alpha?instrument=nope", "", nil, nil); status != http.StatusNotFound {
		t.Fatalf("unknown instrument status = %d, want 404", status)
	}

	var resp struct {
		Instrument string  `json:"instrument"`
		Alpha      float64 `json:"alpha"`
		N          int     `json:"n"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/metrics/alpha?instrument=gad7", "", nil, &resp); status != http.StatusOK {
		t.Fatalf("alpha status = %d", status)
	}
	if resp.Instrument != "gad7" || resp.N != 0 {
		t.Fatalf("unexpected alpha response: %+v", resp)
	}
}

func TestExportAuthAndThrottle(t *testing.T) {
	srv := newTestServer(t, Options{
		Store:             newMemoryStore(),
		ExportMinInterval: time.Minute,
	})

	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "gad7",
		"responses":  []int{1, 1, 1, 1, 1, 1, 1},
	}, nil)

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/export?kind=history", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous export status = %d, want 401", status)
	}

	token := adminToken(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/export?kind=history", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d body %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	if !strings.Contains(string(body), "gad7") {
		t.Fatalf("csv missing assessment row: %s", body)
	}

	// Same actor immediately again hits the rate limit.
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/export?kind=history", token, nil, nil); status != http.StatusTooManyRequests {
		t.Fatalf("throttled export status = %d, want 429", status)
	}
}

func TestExportItems(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})
	token := adminToken(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/export?kind=items&instrument=pss10", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d body %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "reverse_scored") {
		t.Fatalf("items csv missing header: %s", body)
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/export?kind=bogus", token, nil, nil); status != http.StatusBadRequest {
		t.Fatalf("bogus kind status = %d, want 400", status)
	}
}

func TestReportEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var rec models.AssessmentRecord
	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument":       "gad7",
		"responses":        []int{3, 3, 3, 3, 3, 3, 3},
		"participant_name": "Rafi",
	}, &rec)

	resp, err := http.Get(srv.URL + "/api/report?id=" + rec.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", resp.StatusCode)
	}
	text := string(body)
	for _, want := range []string{"Mental Health Screening Report", "Name: Rafi", "Severity: Severe Anxiety", "Score: 21 / 21"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/report?id=missing", "", nil, nil); status != http.StatusNotFound {
		t.Fatalf("missing report status = %d, want 404", status)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/report", "", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("no id status = %d, want 400", status)
	}
}

func TestCoachFallsBackToLatestSeverity(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", map[string]any{
		"instrument": "gad7",
		"responses":  []int{3, 3, 3, 3, 3, 3, 3},
	}, nil)

	var resp struct {
		Reply string `json:"reply"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/coach", "", map[string]any{
		"question": "I cannot sleep at night",
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("coach status = %d", status)
	}
	if !strings.Contains(resp.Reply, "fixed sleep") {
		t.Fatalf("reply missing sleep tip: %q", resp.Reply)
	}
	if !strings.Contains(resp.Reply, "professional soon") {
		t.Fatalf("reply missing severe closing advice: %q", resp.Reply)
	}
}

func TestAssistantEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var resp struct {
		Reply string `json:"reply"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/assistant", "", map[string]any{
		"query": "any breathing exercises?",
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("assistant status = %d", status)
	}
	if !strings.Contains(resp.Reply, "4-7-8") {
		t.Fatalf("unexpected reply: %q", resp.Reply)
	}
}

func TestJournalEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var entry models.JournalEntry
	status := doJSON(t, http.MethodPost, srv.URL+"/api/journal", "", map[string]any{
		"mood": "Good",
		"note": "slept well",
	}, &entry)
	if status != http.StatusCreated {
		t.Fatalf("add entry status = %d", status)
	}
	if entry.Mood != "good" {
		t.Fatalf("mood = %q, want normalized good", entry.Mood)
	}

	if status := doJSON(t, http.MethodPost, srv.URL+"/api/journal", "", map[string]any{"mood": "ecstatic"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad mood status = %d, want 400", status)
	}

	var list struct {
		Entries []models.JournalEntry `json:"entries"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/journal", "", nil, &list); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(list.Entries) != 1 || list.Entries[0].Note != "slept well" {
		t.Fatalf("unexpected entries: %+v", list.Entries)
	}
}

func TestProfileEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var empty struct {
		Profile *models.Profile `json:"profile"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/profile", "", nil, &empty); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if empty.Profile != nil {
		t.Fatalf("expected nil profile, got %+v", empty.Profile)
	}

	var saved models.Profile
	status := doJSON(t, http.MethodPut, srv.URL+"/api/profile", "", map[string]any{
		"name":      "Tania",
		"age_group": "18-24",
	}, &saved)
	if status != http.StatusOK {
		t.Fatalf("put status = %d", status)
	}
	if saved.Name != "Tania" || saved.AgeGroup != "18-24" {
		t.Fatalf("unexpected profile: %+v", saved)
	}

	if status := doJSON(t, http.MethodPut, srv.URL+"/api/profile", "", map[string]any{"name": "x", "age_group": "200+"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad age group status = %d, want 400", status)
	}
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{Store: newMemoryStore()})

	var reg struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	status := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
		"email":    "admin@example.com",
		"password": "Secret123!",
	}, &reg)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}
	if reg.Token == "" || reg.UserID == "" {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	status = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
		"email":    "admin@example.com",
		"password": "Secret123!",
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", status)
	}

	var login struct {
		Token string `json:"token"`
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email":    "admin@example.com",
		"password": "Secret123!",
	}, &login); status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	if login.Token == "" {
		t.Fatal("login token should not be empty")
	}

	if status := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email":    "admin@example.com",
		"password": "wrong",
	}, nil); status != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", status)
	}
}
