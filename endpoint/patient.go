package endpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariebrainware/clinic-hms/migration"
	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errDuplicatePatient = errors.New("patient already exists with same name and phone number")

// ListPatients godoc
// @Summary      List patients
// @Description  Get a paginated list of the clinic's patients with optional filtering
// @Tags         Patient
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for patient name, UHID, address, or phone"
// @Param        group_by_date query string false "Filter by date range (last_2_days, last_3_months, last_6_months)"
// @Param        sort query string false "Optional sort field: full_name|uhid"
// @Param        sort_dir query string false "Optional sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      400 {object} util.APIResponse "Clinic could not be resolved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	query := parseListQuery(c)

	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	filtered := db.Model(&model.Patient{}).Where("clinic_id = ?", clinicID)
	if query.Keyword != "" {
		kw := "%" + query.Keyword + "%"
		filtered = filtered.Where("full_name LIKE ? OR uhid LIKE ? OR address LIKE ? OR phone_number LIKE ?", kw, kw, kw, kw)
	}

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}

	var patients []model.Patient
	if err := query.apply(filtered, "patients", []string{"full_name", "uhid"}).Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(patients), "patients": patients},
	})
}

type createPatientRequest struct {
	FullName      string   `json:"full_name" example:"John Doe"`
	Gender        string   `json:"gender" example:"Male"`
	Age           int      `json:"age" example:"30"`
	DateOfBirth   string   `json:"date_of_birth" example:"1995-02-14"`
	BloodGroup    string   `json:"blood_group" example:"O+"`
	Address       string   `json:"address" example:"123 Main St"`
	PhoneNumber   []string `json:"phone_number" example:"081234567890,081234567891"`
	Email         string   `json:"email,omitempty" example:"john@example.com"`
	HealthHistory []string `json:"health_history" example:"Diabetes,Hypertension"`
}

func normalizePhoneNumbers(numbers []string) []string {
	result := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		normalized := util.NormalizePhone(n)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

func hasDuplicatePatientByNameAndPhone(db *gorm.DB, clinicID uint, fullName string, phoneNumbers []string) (bool, error) {
	if len(phoneNumbers) == 0 {
		return false, nil
	}
	phoneSet := make(map[string]struct{}, len(phoneNumbers))
	for _, p := range phoneNumbers {
		phoneSet[p] = struct{}{}
	}

	var matches []model.Patient
	if err := db.Where("clinic_id = ? AND full_name = ?", clinicID, fullName).Find(&matches).Error; err != nil {
		return false, err
	}

	for _, m := range matches {
		for _, sp := range strings.Split(m.PhoneNumber, ",") {
			if _, ok := phoneSet[strings.TrimSpace(sp)]; ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func buildPatientModel(req createPatientRequest, clinicID uint, uhid string, phoneNumbers []string) model.Patient {
	return model.Patient{
		UHID:          &uhid,
		ClinicID:      clinicID,
		FullName:      req.FullName,
		Gender:        req.Gender,
		Age:           req.Age,
		DateOfBirth:   req.DateOfBirth,
		BloodGroup:    strings.ToUpper(strings.TrimSpace(req.BloodGroup)),
		Address:       req.Address,
		PhoneNumber:   strings.Join(phoneNumbers, ","),
		Email:         strings.TrimSpace(req.Email),
		HealthHistory: strings.Join(req.HealthHistory, ","),
	}
}

// CreatePatient godoc
// @Summary      Register a patient
// @Description  Register a patient in the resolved clinic and assign a UHID
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        request body createPatientRequest true "Patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "Patient already exists"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [post]
func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	// Normalize full_name to prevent duplicate detection bypass via whitespace variations
	req.FullName = util.NormalizeName(req.FullName)
	phones := normalizePhoneNumbers(req.PhoneNumber)
	if req.FullName == "" || len(phones) == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient payload is empty or missing required fields",
			Err: fmt.Errorf("invalid payload"),
		})
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

	duplicate, err := hasDuplicatePatientByNameAndPhone(db, clinicID, req.FullName, phones)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to check existing patient", Err: err})
		return
	}
	if duplicate {
		util.CallConflict(c, util.APIErrorParams{
			Msg: "Patient already exists with same name and phone number",
			Err: errDuplicatePatient,
		})
		return
	}

	// The UHID is drawn before the transaction opens so the counter is never
	// held across the patient write. A failed write leaves a gap.
	uhid, err := alloc.PatientUHID(c.Request.Context())
	if err != nil {
		respondAllocationError(c, clinicID, sequence.TypePatientUHID, err)
		return
	}

	patient := buildPatientModel(req, clinicID, uhid, phones)
	err = db.Transaction(func(tx *gorm.DB) error {
		duplicate, err := hasDuplicatePatientByNameAndPhone(tx, clinicID, req.FullName, phones)
		if err != nil {
			return err
		}
		if duplicate {
			return errDuplicatePatient
		}
		return tx.Create(&patient).Error
	})
	if errors.Is(err, errDuplicatePatient) {
		util.CallConflict(c, util.APIErrorParams{Msg: "Patient already exists with same name and phone number", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create patient", Err: err})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPatientRegistered,
		ClinicID:  clinicLabel(clinicID),
		Subject:   uhid,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Patient registered",
		Details:   map[string]interface{}{"patient_id": patient.ID},
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

func getPatientOrRespond(c *gin.Context, db *gorm.DB, clinicID uint) (model.Patient, bool) {
	id, ok := parseIDParam(c, "patient")
	if !ok {
		return model.Patient{}, false
	}

	var patient model.Patient
	if err := db.Where("clinic_id = ?", clinicID).First(&patient, id).Error; err != nil {
		respondFindError(c, err, "Patient")
		return model.Patient{}, false
	}
	return patient, true
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Tags         Patient
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	patient, ok := getPatientOrRespond(c, db, clinicID)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient retrieved", Data: patient})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Update an existing patient. The UHID cannot be changed.
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        id path int true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [patch]
func UpdatePatient(c *gin.Context) {
	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}

	var req struct {
		model.UpdatePatientRequest
		UHID *string `json:"uhid,omitempty"`
	}
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	patient, ok := getPatientOrRespond(c, db, clinicID)
	if !ok {
		return
	}

	if req.UHID != nil && (!patient.HasUHID() || *req.UHID != *patient.UHID) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "UHID cannot be changed",
			Err: fmt.Errorf("uhid is immutable"),
		})
		return
	}

	if phones := normalizePhoneNumbers(req.PhoneNumbers); len(phones) > 0 {
		patient.PhoneNumber = strings.Join(phones, ",")
	}
	if name := util.NormalizeName(req.FullName); name != "" {
		patient.FullName = name
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}
	if req.Age != 0 {
		patient.Age = req.Age
	}
	if req.DateOfBirth != "" {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.BloodGroup != "" {
		patient.BloodGroup = strings.ToUpper(strings.TrimSpace(req.BloodGroup))
	}
	if req.Address != "" {
		patient.Address = req.Address
	}
	if req.Email != "" {
		patient.Email = strings.TrimSpace(req.Email)
	}
	if req.HealthHistory != "" {
		patient.HealthHistory = req.HealthHistory
	}

	if err := db.Model(&patient).Updates(map[string]interface{}{
		"full_name":      patient.FullName,
		"gender":         patient.Gender,
		"age":            patient.Age,
		"date_of_birth":  patient.DateOfBirth,
		"blood_group":    patient.BloodGroup,
		"address":        patient.Address,
		"phone_number":   patient.PhoneNumber,
		"email":          patient.Email,
		"health_history": patient.HealthHistory,
	}).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient updated", Data: patient})
}

// DeletePatient godoc
// @Summary      Delete a patient
// @Description  Soft delete a patient. The UHID is never reissued.
// @Tags         Patient
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deleted"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [delete]
func DeletePatient(c *gin.Context) {
	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	patient, ok := getPatientOrRespond(c, db, clinicID)
	if !ok {
		return
	}

	if err := db.Delete(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Patient deleted"})
}

// AssignPatientUHID godoc
// @Summary      Assign a UHID
// @Description  Assign a UHID to a patient that has none. Idempotent: a patient that already has one gets it back unchanged.
// @Tags         Patient
// @Produce      json
// @Param        X-Clinic-ID header int false "Clinic ID when no bearer token is sent"
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "UHID assigned"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id}/uhid [post]
func AssignPatientUHID(c *gin.Context) {
	clinicID, ok := clinicIDOrRespond(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	patient, ok := getPatientOrRespond(c, db, clinicID)
	if !ok {
		return
	}

	if patient.HasUHID() {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "UHID already assigned", Data: patient})
		return
	}

	alloc, ok := getAllocatorOrRespond(c)
	if !ok {
		return
	}

	uhid, err := alloc.PatientUHID(c.Request.Context())
	if err != nil {
		respondAllocationError(c, clinicID, sequence.TypePatientUHID, err)
		return
	}

	assigned, err := migration.AssignUHID(c.Request.Context(), db, patient.ID, uhid)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to assign UHID", Err: err})
		return
	}
	// Reload: when assigned is false a concurrent request stored its UHID first.
	if err := db.First(&patient, patient.ID).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to reload patient", Err: err})
		return
	}

	if assigned {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventUHIDAssigned,
			ClinicID:  clinicLabel(clinicID),
			Subject:   uhid,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   "UHID assigned to existing patient",
			Details:   map[string]interface{}{"patient_id": patient.ID},
		})
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "UHID assigned", Data: patient})
}
