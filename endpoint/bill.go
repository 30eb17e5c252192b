package endpoint

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type billItemRequest struct {
	Description string `json:"description" example:"Consultation"`
	Quantity    int    `json:"quantity" example:"1"`
	UnitPrice   int64  `json:"unit_price" example:"150000"`
}

type createBillRequest struct {
	PatientID  uint              `json:"patient_id" example:"1"`
	TaxPercent float64           `json:"tax_percent" example:"11"`
	Discount   int64             `json:"discount" example:"0"`
	Notes      string            `json:"notes" example:"Follow-up visit"`
	Items      []billItemRequest `json:"items"`
}

type updateBillStatusRequest struct {
	Status string `json:"status" example:"paid"`
}

// billTransitions lists the statuses a bill may move to from each status.
var billTransitions = map[string][]string{
	model.BillStatusUnpaid: {model.BillStatusPaid, model.BillStatusCancelled},
}

// buildBill validates the request and computes line amounts and totals.
// Tax is rounded half away from zero to the smallest currency unit.
func buildBill(req createBillRequest) (model.Bill, error) {
	if req.PatientID == 0 {
		return model.Bill{}, fmt.Errorf("patient_id is required")
	}
	if len(req.Items) == 0 {
		return model.Bill{}, fmt.Errorf("at least one item is required")
	}
	if req.TaxPercent < 0 || req.TaxPercent > 100 {
		return model.Bill{}, fmt.Errorf("tax_percent must be between 0 and 100")
	}
	if req.Discount < 0 {
		return model.Bill{}, fmt.Errorf("discount cannot be negative")
	}

	bill := model.Bill{
		PatientID:  req.PatientID,
		TaxPercent: req.TaxPercent,
		Discount:   req.Discount,
		Status:     model.BillStatusUnpaid,
		Notes:      strings.TrimSpace(req.Notes),
		Items:      make([]model.BillItem, 0, len(req.Items)),
	}
	for i, item := range req.Items {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			return model.Bill{}, fmt.Errorf("item %d: description is required", i+1)
		}
		if item.Quantity <= 0 {
			return model.Bill{}, fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if item.UnitPrice < 0 {
			return model.Bill{}, fmt.Errorf("item %d: unit_price cannot be negative", i+1)
		}
		if item.UnitPrice > math.MaxInt64/int64(item.Quantity) {
			return model.Bill{}, fmt.Errorf("item %d: amount overflows", i+1)
		}
		amount := int64(item.Quantity) * item.UnitPrice
		if bill.Subtotal > math.MaxInt64-amount {
			return model.Bill{}, fmt.Errorf("item %d: amount overflows", i+1)
		}
		bill.Items = append(bill.Items, model.BillItem{
			Description: description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		})
		bill.Subtotal += amount
	}

	tax := math.Round(float64(bill.Subtotal) * req.TaxPercent / 100)
	if tax >= float64(math.MaxInt64) || bill.Subtotal > math.MaxInt64-int64(tax) {
		return model.Bill{}, fmt.Errorf("bill total overflows")
	}
	bill.Tax = int64(tax)
	if req.Discount > bill.Subtotal+bill.Tax {
		return model.Bill{}, fmt.Errorf("discount exceeds bill amount")
	}
	bill.Total = bill.Subtotal + bill.Tax - req.Discount
	return bill, nil
}

// billNumberTaken checks candidate numbers of the random strategy against the
// clinic's existing bills, including deleted ones.
func billNumberTaken(db *gorm.DB, clinicID uint) sequence.TakenFunc {
	return func(ctx context.Context, number string) (bool, error) {
		var count int64
		err := db.WithContext(ctx).Unscoped().Model(&model.Bill{}).
			Where("clinic_id = ? AND bill_number = ?", clinicID, number).
			Count(&count).Error
		return count > 0, err
	}
}

// CreateBill godoc
// @Summary      Issue a bill
// @Description  Create a bill with line items for a patient of the resolved clinic and assign its bill number
// @Tags         Bill
// @Accept       json
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        request body createBillRequest true "Bill information"
// @Success      200 {object} util.APIResponse{data=model.Bill} "Bill created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /bill [post]
func CreateBill(c *gin.Context) {
	var req createBillRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	bill, err := buildBill(req)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid bill", Err: err})
		return
	}

	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	alloc, ok := getAllocatorOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.Where("clinic_id = ?", clinicID).First(&patient, req.PatientID).Error; err != nil {
		respondFindError(c, err, "Patient")
		return
	}

	number, err := alloc.BillNumber(c.Request.Context(), clinicID, billNumberTaken(db, clinicID))
	if err != nil {
		respondAllocationError(c, clinicID, sequence.TypeBill, err)
		return
	}

	bill.BillNumber = number
	bill.ClinicID = clinicID
	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&bill).Error
	}); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create bill", Err: err})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventBillIssued,
		ClinicID:  clinicLabel(clinicID),
		Subject:   bill.BillNumber,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Bill issued",
		Details:   map[string]interface{}{"bill_id": bill.ID, "patient_id": bill.PatientID, "total": bill.Total},
	})

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bill created", Data: bill})
}

// ListBills godoc
// @Summary      List bills
// @Description  Get a paginated list of the clinic's bills
// @Tags         Bill
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        status query string false "Filter by status: unpaid|paid|cancelled"
// @Param        patient_id query int false "Filter by patient"
// @Param        keyword query string false "Search by bill number"
// @Param        sort query string false "Optional sort field: bill_number|total"
// @Param        sort_dir query string false "Optional sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Bills retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /bill [get]
func ListBills(c *gin.Context) {
	query := parseListQuery(c)

	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	filtered := db.Model(&model.Bill{}).Where("clinic_id = ?", clinicID)
	if status := c.Query("status"); status != "" {
		if !model.ValidBillStatus(status) {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid status filter", Err: fmt.Errorf("unknown status %q", status)})
			return
		}
		filtered = filtered.Where("status = ?", status)
	}
	if raw := c.Query("patient_id"); raw != "" {
		patientID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid patient filter", Err: err})
			return
		}
		filtered = filtered.Where("patient_id = ?", patientID)
	}
	if query.Keyword != "" {
		filtered = filtered.Where("bill_number LIKE ?", "%"+query.Keyword+"%")
	}

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve bills", Err: err})
		return
	}

	var bills []model.Bill
	if err := query.apply(filtered, "bills", []string{"bill_number", "total"}).Find(&bills).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve bills", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Bills retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(bills), "bills": bills},
	})
}

func getBillOrRespond(c *gin.Context, db *gorm.DB, clinicID uint) (model.Bill, bool) {
	id, ok := parseIDParam(c, "bill")
	if !ok {
		return model.Bill{}, false
	}

	var bill model.Bill
	if err := db.Preload("Items").Where("clinic_id = ?", clinicID).First(&bill, id).Error; err != nil {
		respondFindError(c, err, "Bill")
		return model.Bill{}, false
	}
	return bill, true
}

// GetBill godoc
// @Summary      Get bill
// @Tags         Bill
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        id path int true "Bill ID"
// @Success      200 {object} util.APIResponse{data=model.Bill} "Bill retrieved"
// @Failure      404 {object} util.APIResponse "Bill not found"
// @Router       /bill/{id} [get]
func GetBill(c *gin.Context) {
	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	bill, ok := getBillOrRespond(c, db, clinicID)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bill retrieved", Data: bill})
}

// UpdateBillStatus godoc
// @Summary      Update bill status
// @Description  Move an unpaid bill to paid or cancelled. Paid and cancelled bills are final.
// @Tags         Bill
// @Accept       json
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        id path int true "Bill ID"
// @Param        request body updateBillStatusRequest true "New status"
// @Success      200 {object} util.APIResponse{data=model.Bill} "Bill updated"
// @Failure      400 {object} util.APIResponse "Invalid status or transition"
// @Failure      404 {object} util.APIResponse "Bill not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /bill/{id}/status [patch]
func UpdateBillStatus(c *gin.Context) {
	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}

	var req updateBillStatusRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	if !model.ValidBillStatus(req.Status) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid status", Err: fmt.Errorf("unknown status %q", req.Status)})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	bill, ok := getBillOrRespond(c, db, clinicID)
	if !ok {
		return
	}

	if bill.Status == req.Status {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bill unchanged", Data: bill})
		return
	}
	if !util.Contains(req.Status, billTransitions[bill.Status]) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid status transition",
			Err: fmt.Errorf("cannot move bill from %s to %s", bill.Status, req.Status),
		})
		return
	}

	res := db.Model(&model.Bill{}).
		Where("id = ? AND status = ?", bill.ID, bill.Status).
		Update("status", req.Status)
	if res.Error != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update bill", Err: res.Error})
		return
	}
	if res.RowsAffected == 0 {
		util.CallConflict(c, util.APIErrorParams{Msg: "Bill was modified concurrently", Err: fmt.Errorf("bill status changed")})
		return
	}
	bill.Status = req.Status

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Bill updated", Data: bill})
}
