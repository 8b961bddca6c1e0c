// Package db provides the SQLite-backed store and schema migrations.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mindscreen/mindscreen/internal/models"
)

// SQLiteStore persists screening data in a single SQLite database. Read
// methods match the errorless store interfaces consumed by the services;
// read failures are logged and surface as empty results.
type SQLiteStore struct {
	db         *sql.DB
	exportMu   sync.Mutex
	lastExport map[string]time.Time
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{
		db:         db,
		lastExport: map[string]time.Time{},
	}, nil
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

// --- assessments ---

func (s *SQLiteStore) AddAssessment(rec *models.AssessmentRecord) error {
	responses, err := json.Marshal(rec.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO assessments
		(id, instrument, responses, total, max_total, severity, predicted, risk_tier, participant_name, age_group, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Instrument, string(responses), rec.Total, rec.MaxTotal,
		rec.Severity, rec.Predicted, rec.RiskTier, rec.ParticipantName, rec.AgeGroup, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAssessment(id string) *models.AssessmentRecord {
	row := s.db.QueryRow(`SELECT id, instrument, responses, total, max_total, severity, predicted, risk_tier, participant_name, age_group, created_at
		FROM assessments WHERE id = ?`, id)
	rec, err := scanAssessment(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get assessment", err)
		}
		return nil
	}
	return rec
}

func (s *SQLiteStore) ListAssessments() []*models.AssessmentRecord {
	rows, err := s.db.Query(`SELECT id, instrument, responses, total, max_total, severity, predicted, risk_tier, participant_name, age_group, created_at
		FROM assessments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		s.logErr("list assessments", err)
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []*models.AssessmentRecord
	for rows.Next() {
		rec, err := scanAssessment(rows)
		if err != nil {
			s.logErr("scan assessment", err)
			continue
		}
		out = append(out, rec)
	}
	s.logErr("iterate assessments", rows.Err())
	return out
}

func (s *SQLiteStore) DeleteAssessments() (int, error) {
	res, err := s.db.Exec(`DELETE FROM assessments`)
	if err != nil {
		return 0, fmt.Errorf("delete assessments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*models.AssessmentRecord, error) {
	var rec models.AssessmentRecord
	var responses string
	err := row.Scan(&rec.ID, &rec.Instrument, &responses, &rec.Total, &rec.MaxTotal,
		&rec.Severity, &rec.Predicted, &rec.RiskTier, &rec.ParticipantName, &rec.AgeGroup, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(responses), &rec.Responses); err != nil {
		return nil, fmt.Errorf("unmarshal responses: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// --- journal ---

func (s *SQLiteStore) AddJournal(e *models.JournalEntry) error {
	_, err := s.db.Exec(`INSERT INTO journal_entries (id, mood, note, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Mood, e.Note, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListJournal() []*models.JournalEntry {
	rows, err := s.db.Query(`SELECT id, mood, note, created_at FROM journal_entries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		s.logErr("list journal", err)
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []*models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.Mood, &e.Note, &e.CreatedAt); err != nil {
			s.logErr("scan journal entry", err)
			continue
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, &e)
	}
	s.logErr("iterate journal", rows.Err())
	return out
}

// --- profile ---

func (s *SQLiteStore) SaveProfile(p *models.Profile) error {
	_, err := s.db.Exec(`INSERT INTO profile (id, name, age_group, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, age_group = excluded.age_group, updated_at = excluded.updated_at`,
		p.Name, p.AgeGroup, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile() *models.Profile {
	var p models.Profile
	err := s.db.QueryRow(`SELECT name, age_group, updated_at FROM profile WHERE id = 1`).
		Scan(&p.Name, &p.AgeGroup, &p.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get profile", err)
		}
		return nil
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p
}

// --- users ---

func (s *SQLiteStore) FindUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, email, pass_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *SQLiteStore) AddUser(u *models.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// --- audit ---

func (s *SQLiteStore) AddAudit(e *models.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UTC(), e.Actor, e.Action, e.Target, e.Note)
	s.logErr("insert audit entry", err)
}

// --- export throttle ---

// AllowExport rate-limits exports per actor. The window is tracked in
// memory only; a restart resets it, which is acceptable for a throttle.
func (s *SQLiteStore) AllowExport(actor string, minInterval time.Duration) bool {
	s.exportMu.Lock()
	defer s.exportMu.Unlock()
	now := time.Now()
	if last, ok := s.lastExport[actor]; ok && now.Sub(last) < minInterval {
		return false
	}
	s.lastExport[actor] = now
	return true
}
