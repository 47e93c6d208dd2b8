package repository

import (
	"context"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetOrCreate(ctx context.Context, uid string) (*models.UserProfile, error) {
	user := &models.UserProfile{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO user_profile (uid, last_sign_at) VALUES ($1, NOW())
		 ON CONFLICT (uid) DO UPDATE SET last_sign_at = NOW()
		 RETURNING uid, first_name, last_name, dob, created_at, last_sign_at`,
		uid,
	).Scan(&user.UID, &user.FirstName, &user.LastName, &user.DOB, &user.CreatedAt, &user.LastSignAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) ListUIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT uid FROM user_profile ORDER BY uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}
