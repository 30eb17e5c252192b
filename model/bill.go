package model

import "gorm.io/gorm"

const (
	BillStatusUnpaid    = "unpaid"
	BillStatusPaid      = "paid"
	BillStatusCancelled = "cancelled"
)

// Bill is an invoice issued by a clinic. Amounts are in the smallest currency unit.
// @Description Bill information
type Bill struct {
	gorm.Model
	BillNumber string     `json:"bill_number" gorm:"column:bill_number;size:32;not null;uniqueIndex:idx_bill_clinic_number" example:"BILL-000001"`
	ClinicID   uint       `json:"clinic_id" gorm:"column:clinic_id;not null;uniqueIndex:idx_bill_clinic_number" example:"1"`
	PatientID  uint       `json:"patient_id" gorm:"column:patient_id;not null;index" example:"1"`
	Subtotal   int64      `json:"subtotal" gorm:"column:subtotal" example:"150000"`
	TaxPercent float64    `json:"tax_percent" gorm:"column:tax_percent" example:"11"`
	Tax        int64      `json:"tax" gorm:"column:tax" example:"16500"`
	Discount   int64      `json:"discount" gorm:"column:discount" example:"0"`
	Total      int64      `json:"total" gorm:"column:total" example:"166500"`
	Status     string     `json:"status" gorm:"column:status;size:16;default:unpaid" example:"unpaid"`
	Notes      string     `json:"notes" gorm:"column:notes" example:"Follow-up visit"`
	Items      []BillItem `json:"items" gorm:"foreignKey:BillID"`
}

// BillItem is a single line of a bill.
type BillItem struct {
	gorm.Model
	BillID      uint   `json:"bill_id" gorm:"column:bill_id;index"`
	Description string `json:"description" gorm:"column:description;not null" example:"Consultation"`
	Quantity    int    `json:"quantity" gorm:"column:quantity" example:"1"`
	UnitPrice   int64  `json:"unit_price" gorm:"column:unit_price" example:"150000"`
	Amount      int64  `json:"amount" gorm:"column:amount" example:"150000"`
}

// ValidBillStatus reports whether status is one the API accepts.
func ValidBillStatus(status string) bool {
	switch status {
	case BillStatusUnpaid, BillStatusPaid, BillStatusCancelled:
		return true
	}
	return false
}
