package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// UserProfile is the users/<uid> record merged into the signed-in identity.
type UserProfile struct {
	ID        string    `json:"id" dynamodbav:"id" bson:"_id,omitempty"`
	Email     string    `json:"email" dynamodbav:"email" bson:"email"`
	Name      string    `json:"name,omitempty" dynamodbav:"name,omitempty" bson:"name,omitempty"`
	Role      string    `json:"role,omitempty" dynamodbav:"role,omitempty" bson:"role,omitempty"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
}

type RegisterRequest struct {
	Email    string `json:"email" label:"Email" validate:"required,email"`
	Password string `json:"password" label:"Password" validate:"required,min=6"`
	Name     string `json:"name" label:"Name"`
}

type LoginRequest struct {
	Email    string `json:"email" label:"Email" validate:"required,email"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// Credential is the password record, keyed by lowercase email.
type Credential struct {
	Email        string    `json:"email" dynamodbav:"id" bson:"_id,omitempty"`
	UID          string    `json:"uid" dynamodbav:"uid" bson:"uid"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash" bson:"password_hash"`
	Role         string    `json:"role" dynamodbav:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
}
