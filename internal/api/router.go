// Package api wires the screening services into a stdlib HTTP mux.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/middleware"
	"github.com/mindscreen/mindscreen/internal/model"
	"github.com/mindscreen/mindscreen/internal/models"
	"github.com/mindscreen/mindscreen/internal/reslog"
	"github.com/mindscreen/mindscreen/internal/services"
	"github.com/mindscreen/mindscreen/pkg/logger"
	"github.com/mindscreen/mindscreen/pkg/metrics"
)

// Options configures a Router. Store is required; everything else has a
// sensible zero value.
type Options struct {
	Store             Store
	Sink              services.ResultSink
	Models            map[instrument.ID]*model.Handle
	Metrics           *metrics.Manager
	Logger            logger.Logger
	ExportMinInterval time.Duration
}

type Router struct {
	store             Store
	assessments       *services.AssessmentService
	analytics         *services.AnalyticsService
	journal           *services.JournalService
	auth              *services.AuthService
	metrics           *metrics.Manager
	log               logger.Logger
	exportMinInterval time.Duration
	now               func() time.Time
}

func NewRouter(opts Options) *Router {
	store := opts.Store
	if store == nil {
		store = newMemoryStore()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get().Named("api")
	}
	sink := opts.Sink
	if sink != nil && opts.Metrics != nil {
		sink = countingSink{inner: sink, errs: opts.Metrics.ResultLogErrors, log: log}
	}
	assessments := services.NewAssessmentService(store, sink)
	for id, h := range opts.Models {
		assessments.UseModel(id, h)
	}
	return &Router{
		store:             store,
		assessments:       assessments,
		analytics:         services.NewAnalyticsService(store),
		journal:           services.NewJournalService(store),
		auth:              services.NewAuthService(store, middleware.SignToken),
		metrics:           opts.Metrics,
		log:               log,
		exportMinInterval: opts.ExportMinInterval,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/instruments", rt.handleInstruments)        // GET
	mux.HandleFunc("/api/instruments/", rt.handleInstrumentScoped)  // GET /api/instruments/{id}/items
	mux.HandleFunc("/api/assessments", rt.handleAssessments)        // POST, GET, DELETE
	mux.HandleFunc("/api/assessments/", rt.handleAssessmentScoped)  // GET /api/assessments/{id}
	mux.HandleFunc("/api/dashboard", rt.handleDashboard)            // GET
	mux.HandleFunc("/api/metrics/alpha", rt.handleAlpha)            // GET
	mux.HandleFunc("/api/export", rt.handleExport)                  // GET
	mux.HandleFunc("/api/report", rt.handleReport)                  // GET
	mux.HandleFunc("/api/coach", rt.handleCoach)                    // POST
	mux.HandleFunc("/api/assistant", rt.handleAssistant)            // POST
	mux.HandleFunc("/api/journal", rt.handleJournal)                // GET, POST
	mux.HandleFunc("/api/profile", rt.handleProfile)                // GET, PUT
	mux.HandleFunc("/api/auth/register", rt.handleRegister)         // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)               // POST
}

// countingSink bumps the result-log error counter on failed appends while
// leaving the error for the service to surface.
type countingSink struct {
	inner services.ResultSink
	errs  prometheus.Counter
	log   logger.Logger
}

func (s countingSink) Append(rec reslog.Record) error {
	err := s.inner.Append(rec)
	if err != nil {
		s.errs.Inc()
		s.log.Error(context.Background(), "result log append failed",
			logger.String("instrument", rec.Instrument),
			logger.Error(err))
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses. Anything unrecognized is
// a 500 with a generic body so internals do not leak.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrModelUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorUnavailable:
			status = http.StatusServiceUnavailable
		case services.ErrorTooManyRequests:
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, map[string]string{"error": se.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// GET /api/instruments
func (rt *Router) handleInstruments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	type outInstrument struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Target   string `json:"target"`
		Items    int    `json:"items"`
		MinValue int    `json:"min_value"`
		MaxValue int    `json:"max_value"`
		MaxTotal int    `json:"max_total"`
	}
	defs := instrument.All()
	out := make([]outInstrument, 0, len(defs))
	for _, def := range defs {
		name := def.NameI18n[locale]
		if name == "" {
			name = def.NameI18n["en"]
		}
		out = append(out, outInstrument{
			ID:       string(def.ID),
			Name:     name,
			Target:   def.Target,
			Items:    len(def.Items),
			MinValue: def.MinValue,
			MaxValue: def.MaxValue,
			MaxTotal: def.MaxTotal(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"instruments": out})
}

// GET /api/instruments/{id}/items
func (rt *Router) handleInstrumentScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/instruments/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "items" {
		http.NotFound(w, r)
		return
	}
	def, err := instrument.Lookup(instrument.ID(parts[0]))
	if err != nil {
		writeError(w, services.NewNotFoundError("unknown instrument"))
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	type outItem struct {
		Code          string `json:"code"`
		Stem          string `json:"stem"`
		ReverseScored bool   `json:"reverse_scored"`
	}
	out := make([]outItem, 0, len(def.Items))
	for _, it := range def.Items {
		stem := it.StemI18n[locale]
		if stem == "" {
			stem = it.StemI18n["en"]
		}
		out = append(out, outItem{Code: it.Code, Stem: stem, ReverseScored: it.ReverseScored})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instrument": string(def.ID),
		"min_value":  def.MinValue,
		"max_value":  def.MaxValue,
		"items":      out,
	})
}

// POST | GET | DELETE /api/assessments
func (rt *Router) handleAssessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.submitAssessment(w, r)
	case http.MethodGet:
		// History carries participant names and raw responses; admin only.
		if _, ok := middleware.ClaimsFromContext(r.Context()); !ok {
			writeError(w, services.NewUnauthorizedError("authentication required"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assessments": rt.assessments.History()})
	case http.MethodDelete:
		rt.clearAssessments(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (rt *Router) submitAssessment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instrument      string `json:"instrument"`
		Responses       []int  `json:"responses"`
		ParticipantName string `json:"participant_name"`
		AgeGroup        string `json:"age_group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json body"))
		return
	}
	rec, err := rt.assessments.Submit(services.SubmitAssessmentRequest{
		Instrument:      req.Instrument,
		Responses:       req.Responses,
		ParticipantName: req.ParticipantName,
		AgeGroup:        req.AgeGroup,
	})
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.ScoringErrors.Inc()
		}
		rt.log.Warn(r.Context(), "assessment rejected",
			logger.String("instrument", req.Instrument),
			logger.Error(err))
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.AssessmentsScored.WithLabelValues(rec.Instrument, rec.RiskTier).Inc()
	}
	rt.log.Info(r.Context(), "assessment scored",
		logger.String("id", rec.ID),
		logger.String("instrument", rec.Instrument),
		logger.String("tier", rec.RiskTier))
	writeJSON(w, http.StatusCreated, rec)
}

func (rt *Router) clearAssessments(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	n, err := rt.assessments.Clear()
	if err != nil {
		writeError(w, err)
		return
	}
	rt.store.AddAudit(&models.AuditEntry{
		Time:   rt.now(),
		Actor:  claims.Email,
		Action: "clear_assessments",
		Note:   "removed " + strconv.Itoa(n) + " records",
	})
	rt.log.Info(r.Context(), "history cleared",
		logger.String("actor", claims.Email),
		logger.Int("deleted", n))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

// GET /api/assessments/{id}
func (rt *Router) handleAssessmentScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/assessments/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	rec, err := rt.assessments.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /api/dashboard
func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, rt.analytics.Summary())
}

// GET /api/metrics/alpha?instrument=...
func (rt *Router) handleAlpha(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("instrument")
	if id == "" {
		writeError(w, services.NewInvalidError("instrument required"))
		return
	}
	if _, err := instrument.Lookup(instrument.ID(id)); err != nil {
		writeError(w, services.NewNotFoundError("unknown instrument"))
		return
	}
	alpha, n := rt.analytics.Alpha(instrument.ID(id))
	writeJSON(w, http.StatusOK, map[string]any{"instrument": id, "alpha": alpha, "n": n})
}

// GET /api/export?kind=history|journal|items&instrument=...
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	if rt.exportMinInterval > 0 && !rt.store.AllowExport(claims.UID, rt.exportMinInterval) {
		rt.log.Warn(r.Context(), "export throttled", logger.String("actor", claims.Email))
		writeError(w, services.NewTooManyRequestsError("export rate limit reached"))
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "history"
	}
	var (
		b        []byte
		err      error
		filename string
	)
	switch kind {
	case "history":
		b, err = services.ExportHistoryCSV(rt.store.ListAssessments())
		filename = "history.csv"
	case "journal":
		b, err = services.ExportJournalCSV(rt.store.ListJournal())
		filename = "journal.csv"
	case "items":
		def, lerr := instrument.Lookup(instrument.ID(r.URL.Query().Get("instrument")))
		if lerr != nil {
			writeError(w, services.NewNotFoundError("unknown instrument"))
			return
		}
		b, err = services.ExportItemsCSV(def)
		filename = string(def.ID) + "_items.csv"
	default:
		writeError(w, services.NewInvalidError("unsupported export kind"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	rt.store.AddAudit(&models.AuditEntry{Time: rt.now(), Actor: claims.Email, Action: "export", Target: kind})
	rt.log.Info(r.Context(), "data exported",
		logger.String("actor", claims.Email),
		logger.String("kind", kind))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(b)
}

// GET /api/report?id=...
func (rt *Router) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, services.NewInvalidError("id required"))
		return
	}
	rec, err := rt.assessments.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=mental_health_report.txt")
	_, _ = w.Write(services.BuildReport(rec, rt.now()))
}

// POST /api/coach — {severity, question}
func (rt *Router) handleCoach(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Severity string `json:"severity"`
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json body"))
		return
	}
	severity := req.Severity
	if severity == "" {
		// fall back to the most recent saved result
		if recs := rt.assessments.History(); len(recs) > 0 {
			severity = recs[0].Severity
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": services.CoachReply(severity, req.Question)})
}

// POST /api/assistant — {query}
func (rt *Router) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json body"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": services.AssistantReply(req.Query)})
}

// GET | POST /api/journal
func (rt *Router) handleJournal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"entries": rt.journal.Entries()})
	case http.MethodPost:
		var req struct {
			Mood string `json:"mood"`
			Note string `json:"note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, services.NewInvalidError("invalid json body"))
			return
		}
		entry, err := rt.journal.AddEntry(req.Mood, req.Note)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET | PUT /api/profile
func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		p := rt.journal.Profile()
		if p == nil {
			writeJSON(w, http.StatusOK, map[string]any{"profile": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})
	case http.MethodPut:
		var req struct {
			Name     string `json:"name"`
			AgeGroup string `json:"age_group"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, services.NewInvalidError("invalid json body"))
			return
		}
		p, err := rt.journal.SaveProfile(req.Name, req.AgeGroup)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json body"))
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		rt.log.Warn(r.Context(), "registration failed", logger.Error(err))
		writeError(w, err)
		return
	}
	rt.log.Info(r.Context(), "user registered", logger.String("user_id", res.UserID))
	writeJSON(w, http.StatusCreated, map[string]string{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid json body"))
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.log.Warn(r.Context(), "login failed", logger.String("email", req.Email), logger.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "user_id": res.UserID})
}
