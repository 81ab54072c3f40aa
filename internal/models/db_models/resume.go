package db_models

import "github.com/google/uuid"

// Resume is the slice of the resume document this service needs: ownership.
type Resume struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index;not null"`
	Title  string
}
