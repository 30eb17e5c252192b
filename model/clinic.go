package model

import "gorm.io/gorm"

// Clinic represents a tenant of the system
// @Description Clinic information
type Clinic struct {
	gorm.Model
	HospitalID string `json:"hospital_id" gorm:"column:hospital_id;uniqueIndex;size:32;not null" example:"OC-CGH-001"`
	Name       string `json:"name" gorm:"column:name;size:191;not null" example:"City General Hospital"`
	Email      string `json:"email" gorm:"column:email;size:191" example:"contact@cgh.example"`
	Phone      string `json:"phone" gorm:"column:phone;size:32" example:"081234567890"`
	Address    string `json:"address" gorm:"column:address" example:"12 Harbour Road"`
	City       string `json:"city" gorm:"column:city;size:100" example:"Jakarta"`
	Active     bool   `json:"active" gorm:"column:active;default:true" example:"true"`
}

// UpdateClinicRequest carries the mutable clinic fields.
// @Description Clinic update request
type UpdateClinicRequest struct {
	Name    string `json:"name,omitempty" example:"City General Hospital"`
	Email   string `json:"email,omitempty" example:"contact@cgh.example"`
	Phone   string `json:"phone,omitempty" example:"081234567890"`
	Address string `json:"address,omitempty" example:"12 Harbour Road"`
	City    string `json:"city,omitempty" example:"Jakarta"`
	Active  *bool  `json:"active,omitempty" example:"true"`
}
