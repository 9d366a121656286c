package model

import (
	"time"
)

type Admin struct {
	ID           string `json:"id" bson:"_id"`
	FullName     string `json:"full_name" bson:"fullName"`
	Email        string `json:"email" bson:"email"`
	Username     string `json:"username" bson:"username"`
	PasswordHash string `json:"-" bson:"password"` // Not exposed
	// ResetPasswordToken holds the digest of the mailed token. Set together with
	// ResetPasswordExpires or not at all.
	ResetPasswordToken   *string    `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time `json:"-" bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time  `json:"created_at" bson:"createdAt"`
}
