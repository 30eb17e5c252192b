package endpoint

import (
	"fmt"
	"strings"

	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// hospitalIDAttempts bounds how many counter values are skipped when a
// legacy clinic already holds the allocated ID.
const hospitalIDAttempts = 5

type createClinicRequest struct {
	Name    string `json:"name" example:"City General Hospital"`
	Email   string `json:"email" example:"contact@cgh.example"`
	Phone   string `json:"phone" example:"081234567890"`
	Address string `json:"address" example:"12 Harbour Road"`
	City    string `json:"city" example:"Jakarta"`
}

func hospitalIDTaken(db *gorm.DB, hospitalID string) (bool, error) {
	var count int64
	if err := db.Unscoped().Model(&model.Clinic{}).Where("hospital_id = ?", hospitalID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// allocateHospitalID draws IDs until one is free. Counters synced at startup
// never hit a taken ID; the loop covers clinics imported after the sync.
func allocateHospitalID(c *gin.Context, db *gorm.DB, alloc *sequence.Allocator, name string) (string, error) {
	for attempt := 0; attempt < hospitalIDAttempts; attempt++ {
		id, err := alloc.HospitalID(c.Request.Context(), name)
		if err != nil {
			return "", err
		}
		taken, err := hospitalIDTaken(db, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", sequence.ErrNumberSpaceExhausted
}

// CreateClinic godoc
// @Summary      Register a clinic
// @Description  Create a clinic and assign its hospital ID (OC-<INITIALS>-###)
// @Tags         Clinic
// @Accept       json
// @Produce      json
// @Param        request body createClinicRequest true "Clinic information"
// @Success      200 {object} util.APIResponse{data=model.Clinic} "Clinic created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /clinic [post]
func CreateClinic(c *gin.Context) {
	var req createClinicRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}
	req.Name = util.NormalizeName(req.Name)
	if req.Name == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Clinic name is required",
			Err: fmt.Errorf("invalid payload"),
		})
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

	hospitalID, err := allocateHospitalID(c, db, alloc, req.Name)
	if err != nil {
		respondAllocationError(c, 0, sequence.TypeHospitalID, err)
		return
	}

	clinic := model.Clinic{
		HospitalID: hospitalID,
		Name:       req.Name,
		Email:      strings.TrimSpace(req.Email),
		Phone:      util.NormalizePhone(req.Phone),
		Address:    strings.TrimSpace(req.Address),
		City:       strings.TrimSpace(req.City),
		Active:     true,
	}
	if err := db.Create(&clinic).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create clinic",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventClinicRegistered,
		ClinicID:  clinicLabel(clinic.ID),
		Subject:   clinic.HospitalID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Clinic registered",
		Details:   map[string]interface{}{"name": clinic.Name},
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Clinic created",
		Data: clinic,
	})
}

// ListClinics godoc
// @Summary      List clinics
// @Description  Get a paginated list of clinics with optional keyword search
// @Tags         Clinic
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for name, hospital ID or city"
// @Param        sort query string false "Optional sort field: name|hospital_id"
// @Param        sort_dir query string false "Optional sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Clinics retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /clinic [get]
func ListClinics(c *gin.Context) {
	query := parseListQuery(c)

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	filtered := db.Model(&model.Clinic{})
	if query.Keyword != "" {
		kw := "%" + query.Keyword + "%"
		filtered = filtered.Where("name LIKE ? OR hospital_id LIKE ? OR city LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve clinics", Err: err})
		return
	}

	var clinics []model.Clinic
	if err := query.apply(filtered, "clinics", []string{"name", "hospital_id"}).Find(&clinics).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve clinics", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Clinics retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(clinics), "clinics": clinics},
	})
}

// GetClinic godoc
// @Summary      Get clinic
// @Tags         Clinic
// @Produce      json
// @Param        id path int true "Clinic ID"
// @Success      200 {object} util.APIResponse{data=model.Clinic} "Clinic retrieved"
// @Failure      404 {object} util.APIResponse "Clinic not found"
// @Router       /clinic/{id} [get]
func GetClinic(c *gin.Context) {
	id, ok := parseIDParam(c, "clinic")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var clinic model.Clinic
	if err := db.First(&clinic, id).Error; err != nil {
		respondFindError(c, err, "Clinic")
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic retrieved", Data: clinic})
}

// UpdateClinic godoc
// @Summary      Update clinic
// @Description  Update clinic details. The hospital ID never changes.
// @Tags         Clinic
// @Accept       json
// @Produce      json
// @Param        id path int true "Clinic ID"
// @Param        request body model.UpdateClinicRequest true "Updated clinic information"
// @Success      200 {object} util.APIResponse{data=model.Clinic} "Clinic updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Clinic not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /clinic/{id} [patch]
func UpdateClinic(c *gin.Context) {
	id, ok := parseIDParam(c, "clinic")
	if !ok {
		return
	}

	var req struct {
		model.UpdateClinicRequest
		HospitalID *string `json:"hospital_id,omitempty"`
	}
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var clinic model.Clinic
	if err := db.First(&clinic, id).Error; err != nil {
		respondFindError(c, err, "Clinic")
		return
	}

	if req.HospitalID != nil && *req.HospitalID != clinic.HospitalID {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Hospital ID cannot be changed",
			Err: fmt.Errorf("hospital_id is immutable"),
		})
		return
	}

	if name := util.NormalizeName(req.Name); name != "" {
		clinic.Name = name
	}
	if req.Email != "" {
		clinic.Email = strings.TrimSpace(req.Email)
	}
	if req.Phone != "" {
		clinic.Phone = util.NormalizePhone(req.Phone)
	}
	if req.Address != "" {
		clinic.Address = strings.TrimSpace(req.Address)
	}
	if req.City != "" {
		clinic.City = strings.TrimSpace(req.City)
	}
	if req.Active != nil {
		clinic.Active = *req.Active
	}

	if err := db.Model(&clinic).Select("name", "email", "phone", "address", "city", "active").Updates(&clinic).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update clinic", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic updated", Data: clinic})
}

// DeleteClinic godoc
// @Summary      Delete clinic
// @Description  Soft delete a clinic. Its hospital ID is never reissued.
// @Tags         Clinic
// @Produce      json
// @Param        id path int true "Clinic ID"
// @Success      200 {object} util.APIResponse "Clinic deleted"
// @Failure      404 {object} util.APIResponse "Clinic not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /clinic/{id} [delete]
func DeleteClinic(c *gin.Context) {
	id, ok := parseIDParam(c, "clinic")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var clinic model.Clinic
	if err := db.First(&clinic, id).Error; err != nil {
		respondFindError(c, err, "Clinic")
		return
	}
	if err := db.Delete(&clinic).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete clinic", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic deleted"})
}
