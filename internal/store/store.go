package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smaragdas/softskills/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'rater',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		category TEXT NOT NULL,
		qtype TEXT NOT NULL,
		answer_text TEXT NOT NULL DEFAULT '',
		modalities TEXT NOT NULL DEFAULT '',
		result_json TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_answers_user_category
		ON answers(user_id, category);

	CREATE TABLE IF NOT EXISTS auto_ratings (
		answer_id TEXT PRIMARY KEY,
		score REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (answer_id) REFERENCES answers(id)
	);

	CREATE TABLE IF NOT EXISTS human_ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		answer_id TEXT NOT NULL,
		rater_id TEXT NOT NULL,
		score REAL NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE(answer_id, rater_id),
		FOREIGN KEY (answer_id) REFERENCES answers(id)
	);

	CREATE TABLE IF NOT EXISTS final_scores (
		answer_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		category TEXT NOT NULL,
		qtype TEXT NOT NULL,
		auto_score REAL NOT NULL DEFAULT 0,
		human_avg REAL,
		human_weighted REAL NOT NULL DEFAULT 0,
		final_score REAL NOT NULL DEFAULT 0,
		completed_at DATETIME NOT NULL,
		FOREIGN KEY (answer_id) REFERENCES answers(id)
	);

	CREATE TABLE IF NOT EXISTS service_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertAnswer stores an evaluated answer together with its result payload.
func (s *Store) InsertAnswer(a model.Answer, result *model.EvalResult) error {
	resultJSON := ""
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(data)
	}
	_, err := s.db.Exec(
		`INSERT INTO answers (id, user_id, question_id, category, qtype, answer_text, modalities, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.QuestionID, a.Category, a.QType, a.Text, a.Modalities, resultJSON, time.Now(),
	)
	return err
}

// GetAnswer returns an answer by ID, or nil when missing.
func (s *Store) GetAnswer(id string) (*model.Answer, error) {
	var a model.Answer
	err := s.db.QueryRow(
		`SELECT id, user_id, question_id, category, qtype, answer_text, modalities, created_at
		 FROM answers WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.QuestionID, &a.Category, &a.QType, &a.Text, &a.Modalities, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListPreviousAnswerTexts returns the texts of a user's earlier answers in
// a category, excluding one answer ID. Used for repetition detection.
func (s *Store) ListPreviousAnswerTexts(userID string, category model.Category, excludeID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT answer_text FROM answers
		 WHERE user_id = ? AND category = ? AND id != ? AND answer_text != ''
		 ORDER BY created_at`,
		userID, category, excludeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// ListUserResults returns the stored evaluation results for a user in a
// category/qtype slice, oldest first.
func (s *Store) ListUserResults(userID string, category model.Category, qtype model.QType) ([]model.EvalResult, error) {
	rows, err := s.db.Query(
		`SELECT result_json FROM answers
		 WHERE user_id = ? AND category = ? AND qtype = ? AND result_json != ''
		 ORDER BY created_at`,
		userID, category, qtype,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.EvalResult
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r model.EvalResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// UpsertAutoRating records the machine score for an answer.
func (s *Store) UpsertAutoRating(answerID string, score float64) error {
	_, err := s.db.Exec(
		`INSERT INTO auto_ratings (answer_id, score, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(answer_id) DO UPDATE SET score = ?`,
		answerID, score, time.Now(), score,
	)
	return err
}

// GetAutoRating returns the machine score for an answer, or nil.
func (s *Store) GetAutoRating(answerID string) (*model.AutoRating, error) {
	var r model.AutoRating
	err := s.db.QueryRow(
		`SELECT answer_id, score, created_at FROM auto_ratings WHERE answer_id = ?`, answerID,
	).Scan(&r.AnswerID, &r.Score, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertHumanRating records one rater's score, overwriting a previous
// rating by the same rater for the same answer.
func (s *Store) UpsertHumanRating(r model.HumanRating) error {
	_, err := s.db.Exec(
		`INSERT INTO human_ratings (answer_id, rater_id, score, comment, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(answer_id, rater_id) DO UPDATE SET score = ?, comment = ?`,
		r.AnswerID, r.RaterID, r.Score, r.Comment, time.Now(), r.Score, r.Comment,
	)
	return err
}

// ListHumanRatings returns all ratings for an answer ordered by rater.
func (s *Store) ListHumanRatings(answerID string) ([]model.HumanRating, error) {
	rows, err := s.db.Query(
		`SELECT id, answer_id, rater_id, score, comment, created_at
		 FROM human_ratings WHERE answer_id = ? ORDER BY rater_id`, answerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ratings []model.HumanRating
	for rows.Next() {
		var r model.HumanRating
		if err := rows.Scan(&r.ID, &r.AnswerID, &r.RaterID, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// RatingsByAnswer returns answer -> rater -> score for a category/qtype
// slice, feeding the agreement metrics.
func (s *Store) RatingsByAnswer(category model.Category, qtype model.QType) (map[string]map[string]float64, error) {
	rows, err := s.db.Query(
		`SELECT hr.answer_id, hr.rater_id, hr.score
		 FROM human_ratings hr
		 JOIN answers a ON a.id = hr.answer_id
		 WHERE a.category = ? AND a.qtype = ?`,
		category, qtype,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byAnswer := make(map[string]map[string]float64)
	for rows.Next() {
		var answerID, raterID string
		var score float64
		if err := rows.Scan(&answerID, &raterID, &score); err != nil {
			return nil, err
		}
		if byAnswer[answerID] == nil {
			byAnswer[answerID] = make(map[string]float64)
		}
		byAnswer[answerID][raterID] = score
	}
	return byAnswer, rows.Err()
}

// AutoScoresByAnswer returns answer -> auto score for a category/qtype slice.
func (s *Store) AutoScoresByAnswer(category model.Category, qtype model.QType) (map[string]float64, error) {
	rows, err := s.db.Query(
		`SELECT ar.answer_id, ar.score
		 FROM auto_ratings ar
		 JOIN answers a ON a.id = ar.answer_id
		 WHERE a.category = ? AND a.qtype = ?`,
		category, qtype,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	scores := make(map[string]float64)
	for rows.Next() {
		var answerID string
		var score float64
		if err := rows.Scan(&answerID, &score); err != nil {
			return nil, err
		}
		scores[answerID] = score
	}
	return scores, rows.Err()
}

// CountAnswers returns the number of answers in a category/qtype slice.
func (s *Store) CountAnswers(category model.Category, qtype model.QType) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM answers WHERE category = ? AND qtype = ?`, category, qtype,
	).Scan(&count)
	return count, err
}

// ListUnratedAnswers returns answers in a slice that the given rater has
// not scored yet, oldest first.
func (s *Store) ListUnratedAnswers(raterID string, category model.Category, qtype model.QType, limit int) ([]model.Answer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT a.id, a.user_id, a.question_id, a.category, a.qtype, a.answer_text, a.modalities, a.created_at
		 FROM answers a
		 WHERE a.category = ? AND a.qtype = ?
		   AND NOT EXISTS (
			SELECT 1 FROM human_ratings hr WHERE hr.answer_id = a.id AND hr.rater_id = ?
		   )
		 ORDER BY a.created_at
		 LIMIT ?`,
		category, qtype, raterID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.Category, &a.QType, &a.Text, &a.Modalities, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// UpsertFinalScore stores the reconciled score for an answer.
func (s *Store) UpsertFinalScore(fs model.FinalScore) error {
	_, err := s.db.Exec(
		`INSERT INTO final_scores (answer_id, user_id, question_id, category, qtype,
			auto_score, human_avg, human_weighted, final_score, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(answer_id) DO UPDATE SET
			auto_score = ?, human_avg = ?, human_weighted = ?, final_score = ?, completed_at = ?`,
		fs.AnswerID, fs.UserID, fs.QuestionID, fs.Category, fs.QType,
		fs.AutoScore, fs.HumanAvg, fs.HumanWeighted, fs.Final, time.Now(),
		fs.AutoScore, fs.HumanAvg, fs.HumanWeighted, fs.Final, time.Now(),
	)
	return err
}

// GetFinalScore returns the reconciled score for an answer, or nil.
func (s *Store) GetFinalScore(answerID string) (*model.FinalScore, error) {
	var fs model.FinalScore
	err := s.db.QueryRow(
		`SELECT answer_id, user_id, question_id, category, qtype,
			auto_score, human_avg, human_weighted, final_score, completed_at
		 FROM final_scores WHERE answer_id = ?`, answerID,
	).Scan(&fs.AnswerID, &fs.UserID, &fs.QuestionID, &fs.Category, &fs.QType,
		&fs.AutoScore, &fs.HumanAvg, &fs.HumanWeighted, &fs.Final, &fs.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}
