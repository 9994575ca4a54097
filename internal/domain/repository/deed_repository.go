package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"deeds_api/internal/common"
	"deeds_api/internal/domain/model"
)

// DeedFilter narrows a deed listing. Zero values mean "no filter".
type DeedFilter struct {
	Status string
	UserID int64
}

type DeedRepository interface {
	Create(ctx context.Context, deed *model.Deed) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Deed, error)
	List(ctx context.Context, filter DeedFilter) ([]model.Deed, error)
	// MarkVerified flips a pending deed to verified and stamps
	// verified_at once. The update is conditional on the deed not
	// already being verified; the affected-row count tells the caller
	// whether it won the transition.
	MarkVerified(ctx context.Context, tx *sql.Tx, deedID int64, reward int) (int64, error)
	ListCatalog(ctx context.Context) ([]model.CatalogEntry, error)
}

type pgDeedRepository struct {
	db *sql.DB
}

func NewPgDeedRepository(db *sql.DB) DeedRepository {
	return &pgDeedRepository{db: db}
}

const deedColumns = `id, user_id, title, description, category, proof_url, status, credits, reward, impact, duration, created_at, verified_at`

func (r *pgDeedRepository) Create(ctx context.Context, deed *model.Deed) (int64, error) {
	query := `INSERT INTO deeds (user_id, title, description, category, proof_url, impact, duration, status, credits, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', 0, $8)
	          RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		deed.UserID, deed.Title, deed.Description, deed.Category,
		deed.ProofURL, deed.Impact, deed.Duration, deed.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("pgDeedRepository.Create: %w", err)
	}
	return id, nil
}

func (r *pgDeedRepository) FindByID(ctx context.Context, id int64) (*model.Deed, error) {
	query := `SELECT ` + deedColumns + ` FROM deeds WHERE id = $1`
	deed := &model.Deed{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&deed.ID, &deed.UserID, &deed.Title, &deed.Description, &deed.Category,
		&deed.ProofURL, &deed.Status, &deed.Credits, &deed.Reward,
		&deed.Impact, &deed.Duration, &deed.CreatedAt, &deed.VerifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgDeedRepository.FindByID: %w", err)
	}
	return deed, nil
}

func (r *pgDeedRepository) List(ctx context.Context, filter DeedFilter) ([]model.Deed, error) {
	query := `SELECT ` + deedColumns + ` FROM deeds`
	conditions := []string{}
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, "user_id = $"+strconv.Itoa(len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgDeedRepository.List: %w", err)
	}
	defer rows.Close()

	deeds := []model.Deed{}
	for rows.Next() {
		var deed model.Deed
		if err := rows.Scan(
			&deed.ID, &deed.UserID, &deed.Title, &deed.Description, &deed.Category,
			&deed.ProofURL, &deed.Status, &deed.Credits, &deed.Reward,
			&deed.Impact, &deed.Duration, &deed.CreatedAt, &deed.VerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("pgDeedRepository.List: %w", err)
		}
		deeds = append(deeds, deed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDeedRepository.List: %w", err)
	}
	return deeds, nil
}

func (r *pgDeedRepository) MarkVerified(ctx context.Context, tx *sql.Tx, deedID int64, reward int) (int64, error) {
	query := `UPDATE deeds
	          SET status = 'verified', credits = $2, verified_at = COALESCE(verified_at, CURRENT_TIMESTAMP)
	          WHERE id = $1 AND status <> 'verified'`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, deedID, reward)
	} else {
		res, err = r.db.ExecContext(ctx, query, deedID, reward)
	}
	if err != nil {
		return 0, fmt.Errorf("pgDeedRepository.MarkVerified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pgDeedRepository.MarkVerified: %w", err)
	}
	return affected, nil
}

func (r *pgDeedRepository) ListCatalog(ctx context.Context) ([]model.CatalogEntry, error) {
	query := `SELECT id, title, description, impact, duration FROM deed_catalog ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgDeedRepository.ListCatalog: %w", err)
	}
	defer rows.Close()

	entries := []model.CatalogEntry{}
	for rows.Next() {
		var entry model.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Description, &entry.Impact, &entry.Duration); err != nil {
			return nil, fmt.Errorf("pgDeedRepository.ListCatalog: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDeedRepository.ListCatalog: %w", err)
	}
	return entries, nil
}
