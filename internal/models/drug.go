package models

import "time"

type Drug struct {
	DrugID     int64     `json:"drug_id"`
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	BrandName  *string   `json:"brand_name"`
	DrugbankID string    `json:"drugbank_id"` // normalized uppercase, may be empty for imports
	Strength   *float64  `json:"strength"`
	Unit       *string   `json:"unit"` // "mg", "ml"; fallback dose unit when the schedule has none
	Form       *string   `json:"form"`
	Notes      *string   `json:"notes"`
	ClientUUID string    `json:"client_uuid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
