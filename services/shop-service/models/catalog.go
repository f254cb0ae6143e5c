package models

// Package is a bookable service offered by a team.
type Package struct {
	ID          string  `json:"id" dynamodbav:"id" bson:"_id,omitempty"`
	Title       string  `json:"title" dynamodbav:"title" bson:"title"`
	Description string  `json:"description" dynamodbav:"description" bson:"description"`
	Price       float64 `json:"price" dynamodbav:"price" bson:"price"`
	Team        string  `json:"team" dynamodbav:"team" bson:"team"`
	Duration    float64 `json:"duration" dynamodbav:"duration" bson:"duration"` // hours
	ImageURL    string  `json:"image_url,omitempty" dynamodbav:"image_url,omitempty" bson:"image_url,omitempty"`
}

// PackageForm is the admin input for creating or editing a package.
type PackageForm struct {
	Title       string  `json:"title" form:"title" label:"Title" validate:"required"`
	Description string  `json:"description" form:"description" label:"Description" validate:"required"`
	Price       float64 `json:"price" form:"price" label:"Price" validate:"required,gt=0"`
	Team        string  `json:"team" form:"team" label:"Team selection" validate:"required"`
	Duration    float64 `json:"duration" form:"duration" label:"Duration" validate:"required,gt=0"`
}

// Team is reference data; packages name a team by Team.Name.
type Team struct {
	ID   string `json:"id" dynamodbav:"id" bson:"_id,omitempty"`
	Name string `json:"name" dynamodbav:"name" bson:"name"`
}

type TeamForm struct {
	Name string `json:"name" label:"Team name" validate:"required,max=80"`
}

// TeamFilterAll is the catalog filter value that matches every team.
const TeamFilterAll = "All"
