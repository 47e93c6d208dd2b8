package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/storage"
)

type DrugRepository struct {
	db *database.DB
}

func NewDrugRepository(db *database.DB) *DrugRepository {
	return &DrugRepository{db: db}
}

const drugColumns = `drug_id, uid, name, brand_name, drugbank_id, strength, unit, form, notes, client_uuid, created_at, updated_at`

func (r *DrugRepository) Insert(ctx context.Context, drug *models.Drug) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO drug (uid, name, brand_name, drugbank_id, strength, unit, form, notes, client_uuid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING drug_id, created_at, updated_at`,
		drug.UID, drug.Name, drug.BrandName, drug.DrugbankID, drug.Strength,
		drug.Unit, drug.Form, drug.Notes, drug.ClientUUID,
	).Scan(&drug.DrugID, &drug.CreatedAt, &drug.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (r *DrugRepository) GetByID(ctx context.Context, drugID int64) (*models.Drug, error) {
	drug := &models.Drug{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+drugColumns+` FROM drug WHERE drug_id = $1`,
		drugID,
	).Scan(&drug.DrugID, &drug.UID, &drug.Name, &drug.BrandName, &drug.DrugbankID,
		&drug.Strength, &drug.Unit, &drug.Form, &drug.Notes, &drug.ClientUUID,
		&drug.CreatedAt, &drug.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return drug, nil
}

func (r *DrugRepository) FindByOwner(ctx context.Context, uid string) ([]*models.Drug, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+drugColumns+` FROM drug WHERE uid = $1 ORDER BY name`,
		uid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drugs []*models.Drug
	for rows.Next() {
		drug := &models.Drug{}
		if err := rows.Scan(&drug.DrugID, &drug.UID, &drug.Name, &drug.BrandName, &drug.DrugbankID,
			&drug.Strength, &drug.Unit, &drug.Form, &drug.Notes, &drug.ClientUUID,
			&drug.CreatedAt, &drug.UpdatedAt); err != nil {
			return nil, err
		}
		drugs = append(drugs, drug)
	}
	return drugs, rows.Err()
}

func (r *DrugRepository) FindExactByNameOrBrand(ctx context.Context, uid, name string) (*models.Drug, error) {
	drug := &models.Drug{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+drugColumns+` FROM drug
		 WHERE uid = $1 AND (LOWER(name) = LOWER($2) OR LOWER(brand_name) = LOWER($2))
		 LIMIT 1`,
		uid, name,
	).Scan(&drug.DrugID, &drug.UID, &drug.Name, &drug.BrandName, &drug.DrugbankID,
		&drug.Strength, &drug.Unit, &drug.Form, &drug.Notes, &drug.ClientUUID,
		&drug.CreatedAt, &drug.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return drug, nil
}

func (r *DrugRepository) DeleteByID(ctx context.Context, drugID int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM drug WHERE drug_id = $1`, drugID)
	return err
}
