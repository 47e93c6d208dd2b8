package models

import "time"

type UserProfile struct {
	UID        string     `json:"uid"`
	FirstName  *string    `json:"first_name"`
	LastName   *string    `json:"last_name"`
	DOB        *string    `json:"dob"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSignAt *time.Time `json:"last_sign_at"`
}
