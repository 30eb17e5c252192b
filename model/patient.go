package model

import "gorm.io/gorm"

// Patient represents a registered patient
// @Description Patient information
type Patient struct {
	gorm.Model
	// UHID is nil only for legacy rows awaiting backfill. Once set it never changes.
	UHID          *string `json:"uhid" gorm:"column:uhid;uniqueIndex;size:32" example:"UHID-00001"`
	ClinicID      uint    `json:"clinic_id" gorm:"column:clinic_id;index" example:"1"`
	FullName      string  `json:"full_name" gorm:"column:full_name;size:191;not null" example:"John Doe"`
	Gender        string  `json:"gender" gorm:"column:gender;size:16" example:"Male"`
	Age           int     `json:"age" gorm:"column:age" example:"30"`
	DateOfBirth   string  `json:"date_of_birth" gorm:"column:date_of_birth;size:10" example:"1995-02-14"`
	BloodGroup    string  `json:"blood_group" gorm:"column:blood_group;size:4" example:"O+"`
	Address       string  `json:"address" gorm:"column:address" example:"123 Main St"`
	PhoneNumber   string  `json:"phone_number" gorm:"column:phone_number" example:"081234567890"`
	Email         string  `json:"email" gorm:"column:email;size:191" example:"john@example.com"`
	HealthHistory string  `json:"health_history" gorm:"column:health_history" example:"Diabetes,Hypertension"`
}

// HasUHID reports whether the patient already carries an identifier.
func (p Patient) HasUHID() bool {
	return p.UHID != nil && *p.UHID != ""
}

// UpdatePatientRequest represents a patient update request. It has no UHID
// field, so the identifier cannot be changed through an update.
// @Description Patient update request
type UpdatePatientRequest struct {
	FullName      string   `json:"full_name,omitempty" example:"John Doe"`
	Gender        string   `json:"gender,omitempty" example:"Male"`
	Age           int      `json:"age,omitempty" example:"31"`
	DateOfBirth   string   `json:"date_of_birth,omitempty" example:"1995-02-14"`
	BloodGroup    string   `json:"blood_group,omitempty" example:"O+"`
	Address       string   `json:"address,omitempty" example:"123 Main St"`
	PhoneNumbers  []string `json:"phone_number,omitempty" example:"081234567890"`
	Email         string   `json:"email,omitempty" example:"john@example.com"`
	HealthHistory string   `json:"health_history,omitempty" example:"Diabetes"`
}
