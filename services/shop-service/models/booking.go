package models

import "time"

// BookingStep is the position of a draft in the booking flow.
type BookingStep string

const (
	StepService  BookingStep = "service"
	StepSchedule BookingStep = "schedule"
	StepDetails  BookingStep = "details"
	StepConfirm  BookingStep = "confirm"
)

// BookingDraft is built up client-side step by step and submitted whole.
type BookingDraft struct {
	Step      BookingStep `json:"step"`
	PackageID string      `json:"package_id" label:"Package" validate:"required"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	Team      string      `json:"team"`
	Duration  float64     `json:"duration"`
	Date      string      `json:"date" label:"Date" validate:"required,datetime=2006-01-02"`
	TimeSlot  string      `json:"time_slot" label:"Time slot" validate:"required"`
	FullName  string      `json:"full_name" label:"Full name" validate:"required"`
	Email     string      `json:"email" label:"Email" validate:"required,email"`
	Phone     string      `json:"phone" label:"Phone"`
	Notes     string      `json:"notes" label:"Notes" validate:"max=2000"`
}

type SelectPackageRequest struct {
	PackageID string `json:"package_id" label:"Package" validate:"required"`
}

type Booking struct {
	ID        string    `json:"id" dynamodbav:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id,omitempty" dynamodbav:"user_id,omitempty" bson:"user_id,omitempty"`
	PackageID string    `json:"package_id" dynamodbav:"package_id" bson:"package_id"`
	Title     string    `json:"title" dynamodbav:"title" bson:"title"`
	Price     float64   `json:"price" dynamodbav:"price" bson:"price"`
	Team      string    `json:"team" dynamodbav:"team" bson:"team"`
	Duration  float64   `json:"duration" dynamodbav:"duration" bson:"duration"`
	Date      string    `json:"date" dynamodbav:"date" bson:"date"`
	TimeSlot  string    `json:"time_slot" dynamodbav:"time_slot" bson:"time_slot"`
	FullName  string    `json:"full_name" dynamodbav:"full_name" bson:"full_name"`
	Email     string    `json:"email" dynamodbav:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" dynamodbav:"phone,omitempty" bson:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty" dynamodbav:"notes,omitempty" bson:"notes,omitempty"`
	Status    string    `json:"status" dynamodbav:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
}

const BookingStatusPending = "pending"
