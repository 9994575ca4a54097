package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"deeds_api/internal/common"
	"deeds_api/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (int64, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByEmailWithCompleted also returns the user's verified deed
	// count, as shown on the login profile.
	FindByEmailWithCompleted(ctx context.Context, email string) (*model.User, int, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	GetProfileSummary(ctx context.Context, userID int64) (*model.ProfileSummary, error)
	AddCredits(ctx context.Context, tx *sql.Tx, userID int64, amount int) error
	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, credits, region, sector, verification_status, created_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users (name, email, password_hash, role, region, sector, verification_status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.HashedPassword, user.Role,
		user.Region, user.Sector, user.VerificationStatus, user.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return 0, fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return 0, fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return id, nil
}

func (r *pgUserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.Role,
		&user.Credits, &user.Region, &user.Sector, &user.VerificationStatus, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmailWithCompleted(ctx context.Context, email string) (*model.User, int, error) {
	query := `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.credits,
	                 u.region, u.sector, u.verification_status, u.created_at,
	                 COALESCE(SUM(CASE WHEN d.status = 'verified' THEN 1 ELSE 0 END), 0) AS completed
	          FROM users u
	          LEFT JOIN deeds d ON d.user_id = u.id
	          WHERE u.email = $1
	          GROUP BY u.id`
	user := &model.User{}
	var completed int
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.Role,
		&user.Credits, &user.Region, &user.Sector, &user.VerificationStatus, &user.CreatedAt,
		&completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, common.ErrNotFound
		}
		return nil, 0, fmt.Errorf("pgUserRepository.FindByEmailWithCompleted: %w", err)
	}
	return user, completed, nil
}

func (r *pgUserRepository) GetProfileSummary(ctx context.Context, userID int64) (*model.ProfileSummary, error) {
	query := `SELECT u.id, u.name, u.email, COALESCE(u.credits, 0),
	                 COUNT(d.id) AS total_deeds,
	                 COUNT(CASE WHEN d.status = 'verified' THEN 1 END) AS verified_deeds
	          FROM users u
	          LEFT JOIN deeds d ON u.id = d.user_id
	          WHERE u.id = $1
	          GROUP BY u.id`
	summary := &model.ProfileSummary{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&summary.ID, &summary.Name, &summary.Email, &summary.Credits,
		&summary.TotalDeeds, &summary.VerifiedDeeds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.GetProfileSummary: %w", err)
	}
	return summary, nil
}

func (r *pgUserRepository) AddCredits(ctx context.Context, tx *sql.Tx, userID int64, amount int) error {
	query := `UPDATE users SET credits = COALESCE(credits, 0) + $2 WHERE id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID, amount)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID, amount)
	}
	if err != nil {
		return fmt.Errorf("pgUserRepository.AddCredits: %w", err)
	}
	return nil
}

func (r *pgUserRepository) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `SELECT u.name, u.region, u.sector, COALESCE(u.credits, 0) AS credits,
	                 COUNT(CASE WHEN d.status = 'verified' THEN 1 END) AS verified,
	                 COUNT(d.id) AS total
	          FROM users u
	          LEFT JOIN deeds d ON u.id = d.user_id
	          GROUP BY u.id
	          ORDER BY credits DESC, verified DESC, u.name ASC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.GetLeaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var entry model.LeaderboardEntry
		var name, region, sector sql.NullString
		if err := rows.Scan(&name, &region, &sector, &entry.Credits, &entry.Verified, &entry.Total); err != nil {
			return nil, fmt.Errorf("pgUserRepository.GetLeaderboard: %w", err)
		}
		// Display defaults for sparse rows.
		entry.Name = name.String
		if entry.Name == "" {
			entry.Name = "Neighbor"
		}
		entry.Region = region.String
		if entry.Region == "" {
			entry.Region = "—"
		}
		entry.Sector = sector.String
		if entry.Sector == "" {
			entry.Sector = "General"
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.GetLeaderboard: %w", err)
	}
	return entries, nil
}
