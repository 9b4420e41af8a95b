package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/sheetlens/internal/model"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// AnalysisRepository is an append-only store. Every query is scoped to a
// user; the newest record for (user, file, type) is the current one.
type AnalysisRepository interface {
	Create(a *model.Analysis) error
	Latest(userID, fileID string, t model.AnalysisType) (*model.Analysis, error)
	List(userID string, t model.AnalysisType, limit, offset int) ([]*model.AnalysisSummary, error)
	Count(userID string, t model.AnalysisType) (int, error)
}

type analysisRepository struct {
	db *sqlx.DB
}

func NewAnalysisRepository(db *sqlx.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(a *model.Analysis) error {
	query := r.db.Rebind(`INSERT INTO analyses (id, user_id, file_id, type, has_data, data, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query,
		a.ID,
		a.UserID,
		a.FileID,
		a.Type,
		a.HasData,
		a.Data,
		a.CreatedAt,
	)

	return err
}

func (r *analysisRepository) Latest(userID, fileID string, t model.AnalysisType) (*model.Analysis, error) {
	a := &model.Analysis{}
	query := r.db.Rebind(`SELECT * FROM analyses
	          WHERE user_id = ? AND file_id = ? AND type = ?
	          ORDER BY created_at DESC, id DESC LIMIT 1`)

	err := r.db.Get(a, query, userID, fileID, t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}

	return a, nil
}

// List returns history newest first. An empty type matches every type.
func (r *analysisRepository) List(userID string, t model.AnalysisType, limit, offset int) ([]*model.AnalysisSummary, error) {
	summaries := []*model.AnalysisSummary{}
	query := r.db.Rebind(`SELECT a.id, a.file_id, COALESCE(f.original_name, '') AS file_name, a.type, a.has_data, a.created_at
	          FROM analyses a
	          LEFT JOIN files f ON f.id = a.file_id
	          WHERE a.user_id = ? AND (? = '' OR a.type = ?)
	          ORDER BY a.created_at DESC, a.id DESC
	          LIMIT ? OFFSET ?`)

	err := r.db.Select(&summaries, query, userID, t, t, limit, offset)
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *analysisRepository) Count(userID string, t model.AnalysisType) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM analyses WHERE user_id = ? AND (? = '' OR type = ?)`)
	err := r.db.QueryRow(query, userID, t, t).Scan(&count)
	return count, err
}
