package model

import "time"

// Counter is a durable, atomically incremented sequence keyed by type and scope.
// An empty Scope is the global sequence for the type.
type Counter struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Type         string    `json:"type" gorm:"column:type;size:64;not null;uniqueIndex:idx_counter_type_scope" example:"patient_uhid"`
	Scope        string    `json:"scope" gorm:"column:scope;size:191;not null;default:'';uniqueIndex:idx_counter_type_scope" example:"OC-CGH"`
	CurrentValue int64     `json:"current_value" gorm:"column:current_value;not null;default:0" example:"42"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
