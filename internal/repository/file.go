package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/sheetlens/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	ByIDForUser(userID, id string) (*model.File, error)
	AllUserFiles(userID string) ([]*model.File, error)
	Delete(userID, id string) error
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := r.db.Rebind(`INSERT INTO files (id, user_id, filename, original_name, mime_type, size, storage_path, checksum, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query,
		file.ID,
		file.UserID,
		file.Filename,
		file.OriginalName,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.Checksum,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	file := &model.File{}
	query := r.db.Rebind(`SELECT * FROM files WHERE id = ?`)

	err := r.db.Get(file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

// ByIDForUser treats a file owned by someone else exactly like a missing one.
func (r *fileRepository) ByIDForUser(userID, id string) (*model.File, error) {
	file := &model.File{}
	query := r.db.Rebind(`SELECT * FROM files WHERE id = ? AND user_id = ?`)

	err := r.db.Get(file, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (r *fileRepository) AllUserFiles(userID string) ([]*model.File, error) {
	files := []*model.File{}
	query := r.db.Rebind(`SELECT * FROM files WHERE user_id = ? ORDER BY created_at DESC`)

	err := r.db.Select(&files, query, userID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Delete(userID, id string) error {
	query := r.db.Rebind(`DELETE FROM files WHERE id = ? AND user_id = ?`)
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}
