package endpoint

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/ariebrainware/clinic-hms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePatient_AssignsUHID(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")

	code, resp := registerPatient(t, r, clinic.ID, "John  Doe", "0812-345 678")
	require.Equal(t, http.StatusOK, code, resp)
	data := dataMap(t, resp)
	assert.Equal(t, "UHID-00001", data["uhid"])
	assert.Equal(t, "John Doe", data["full_name"])
	assert.Equal(t, "0812345678", data["phone_number"])
	assert.Equal(t, float64(clinic.ID), data["clinic_id"])

	code, resp = registerPatient(t, r, clinic.ID, "Jane Roe", "0899")
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "UHID-00002", dataMap(t, resp)["uhid"])
}

func TestCreatePatient_UHIDIsGlobalAcrossClinics(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	cgh := seedClinic(t, db, "OC-CGH-001", "City General Hospital")
	apo := seedClinic(t, db, "OC-APO-001", "Apollo")

	_, resp := registerPatient(t, r, cgh.ID, "John Doe", "0812")
	assert.Equal(t, "UHID-00001", dataMap(t, resp)["uhid"])
	_, resp = registerPatient(t, r, apo.ID, "John Doe", "0812")
	assert.Equal(t, "UHID-00002", dataMap(t, resp)["uhid"])
}

func TestCreatePatient_DuplicateIsRejected(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")

	code, _ := registerPatient(t, r, clinic.ID, "John Doe", "0812345678")
	require.Equal(t, http.StatusOK, code)

	code, resp := registerPatient(t, r, clinic.ID, " John   Doe ", "0812-345-678")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, resp["success"])

	// A rejected duplicate does not consume a UHID.
	code, resp = registerPatient(t, r, clinic.ID, "Jane Roe", "0899")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UHID-00002", dataMap(t, resp)["uhid"])
}

func TestCreatePatient_SimultaneousRegistrations(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")

	uhids := make([]string, 2)
	var wg sync.WaitGroup
	for i := range uhids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, resp, err := performRequest(r, requestSpec{
				method:      http.MethodPost,
				requestPath: "/patient",
				body:        map[string]interface{}{"full_name": fmt.Sprintf("Patient %d", i), "phone_number": []string{fmt.Sprintf("08%d", i)}},
				headers:     clinicHeader(clinic.ID),
			})
			if assert.NoError(t, err) && assert.Equal(t, http.StatusOK, w.Code) {
				uhids[i], _ = resp["data"].(map[string]interface{})["uhid"].(string)
			}
		}(i)
	}
	wg.Wait()

	sort.Strings(uhids)
	assert.Equal(t, []string{"UHID-00001", "UHID-00002"}, uhids)
}

func TestCreatePatient_Validation(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")

	code, _ := registerPatient(t, r, clinic.ID, "", "0812")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = registerPatient(t, r, clinic.ID, "John Doe", " - ")
	assert.Equal(t, http.StatusBadRequest, code)

	w, _, err := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/patient",
		body:        map[string]interface{}{"full_name": "John Doe", "phone_number": []string{"0812"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code, _ = registerPatient(t, r, clinic.ID+100, "John Doe", "0812")
	assert.Equal(t, http.StatusNotFound, code)

	var count int64
	require.NoError(t, db.Model(&model.Patient{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPatient_ScopedToClinic(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	cgh := seedClinic(t, db, "OC-CGH-001", "City General Hospital")
	apo := seedClinic(t, db, "OC-APO-001", "Apollo")

	_, resp := registerPatient(t, r, cgh.ID, "John Doe", "0812")
	patientID := uint(dataMap(t, resp)["ID"].(float64))
	registerPatient(t, r, apo.ID, "Jane Roe", "0899")

	path := fmt.Sprintf("/patient/%d", patientID)
	w, _, err := performRequest(r, requestSpec{method: http.MethodGet, requestPath: path, headers: clinicHeader(apo.ID)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp, err = performRequest(r, requestSpec{method: http.MethodGet, requestPath: path, headers: clinicHeader(cgh.ID)})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UHID-00001", dataMap(t, resp)["uhid"])

	w, resp, err = performRequest(r, requestSpec{method: http.MethodGet, requestPath: "/patient?keyword=UHID", headers: clinicHeader(cgh.ID)})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), dataMap(t, resp)["total"])
}

func TestUpdatePatient_UHIDIsImmutable(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")
	_, resp := registerPatient(t, r, clinic.ID, "John Doe", "0812")
	patientID := uint(dataMap(t, resp)["ID"].(float64))
	path := fmt.Sprintf("/patient/%d", patientID)

	w, _, err := performRequest(r, requestSpec{
		method:      http.MethodPatch,
		requestPath: path,
		body:        map[string]interface{}{"uhid": "UHID-99999", "full_name": "Someone Else"},
		headers:     clinicHeader(clinic.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp, err = performRequest(r, requestSpec{
		method:      http.MethodPatch,
		requestPath: path,
		body:        map[string]interface{}{"uhid": "UHID-00001", "full_name": "John  Q Doe", "blood_group": "ab+"},
		headers:     clinicHeader(clinic.ID),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, resp)

	var patient model.Patient
	require.NoError(t, db.First(&patient, patientID).Error)
	require.NotNil(t, patient.UHID)
	assert.Equal(t, "UHID-00001", *patient.UHID)
	assert.Equal(t, "John Q Doe", patient.FullName)
	assert.Equal(t, "AB+", patient.BloodGroup)
}

func TestAssignPatientUHID_Idempotent(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")
	legacy := model.Patient{ClinicID: clinic.ID, FullName: "Legacy Patient", PhoneNumber: "0811"}
	require.NoError(t, db.Create(&legacy).Error)

	path := fmt.Sprintf("/patient/%d/uhid", legacy.ID)
	w, resp, err := performRequest(r, requestSpec{method: http.MethodPost, requestPath: path, headers: clinicHeader(clinic.ID)})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, resp)
	assert.Equal(t, "UHID assigned", resp["msg"])
	assert.Equal(t, "UHID-00001", dataMap(t, resp)["uhid"])

	w, resp, err = performRequest(r, requestSpec{method: http.MethodPost, requestPath: path, headers: clinicHeader(clinic.ID)})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UHID already assigned", resp["msg"])
	assert.Equal(t, "UHID-00001", dataMap(t, resp)["uhid"])

	// The repeated call did not draw a number.
	_, resp = registerPatient(t, r, clinic.ID, "New Patient", "0822")
	assert.Equal(t, "UHID-00002", dataMap(t, resp)["uhid"])
}

func TestDeletePatient(t *testing.T) {
	r, db, _ := setupEndpointTest(t)
	clinic := seedClinic(t, db, "OC-CGH-001", "City General Hospital")
	_, resp := registerPatient(t, r, clinic.ID, "John Doe", "0812")
	path := fmt.Sprintf("/patient/%d", uint(dataMap(t, resp)["ID"].(float64)))

	w, _, err := performRequest(r, requestSpec{method: http.MethodDelete, requestPath: path, headers: clinicHeader(clinic.ID)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _, err = performRequest(r, requestSpec{method: http.MethodGet, requestPath: path, headers: clinicHeader(clinic.ID)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
