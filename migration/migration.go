// Package migration adopts existing identifiers into the counter store and
// backfills records created before identifiers were assigned.
package migration

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/ariebrainware/clinic-hms/model"
	"github.com/ariebrainware/clinic-hms/sequence"
	"github.com/ariebrainware/clinic-hms/util"
	"gorm.io/gorm"
)

const backfillBatchSize = 200

// Report summarizes the counters raised by a sync.
type Report struct {
	HospitalIDs map[string]int64 `json:"hospital_ids"`
	PatientUHID int64            `json:"patient_uhid"`
	Bills       map[uint]int64   `json:"bills"`
}

// AutoMigrate creates or updates every application table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(model.AllModels()...)
}

// SyncAll raises every counter to the highest identifier already stored.
func SyncAll(ctx context.Context, db *gorm.DB, alloc *sequence.Allocator) (Report, error) {
	var report Report
	var err error

	if report.HospitalIDs, err = SyncHospitalIDCounters(ctx, db, alloc); err != nil {
		return report, err
	}
	if report.PatientUHID, err = SyncPatientUHIDCounter(ctx, db, alloc); err != nil {
		return report, err
	}
	if report.Bills, err = SyncBillCounters(ctx, db, alloc); err != nil {
		return report, err
	}
	return report, nil
}

// SyncHospitalIDCounters finds the highest suffix per "OC-<INITIALS>" base in
// the clinics table and raises the matching counter to it, so the next
// allocation is strictly greater than anything already issued.
func SyncHospitalIDCounters(ctx context.Context, db *gorm.DB, alloc *sequence.Allocator) (map[string]int64, error) {
	policy, err := alloc.Policy(sequence.TypeHospitalID)
	if err != nil {
		return nil, err
	}
	pattern := regexp.MustCompile(`^(` + regexp.QuoteMeta(policy.Prefix) + `[A-Z]+)-(\d+)$`)

	var ids []string
	if err := db.WithContext(ctx).Unscoped().Model(&model.Clinic{}).
		Where("hospital_id LIKE ?", policy.Prefix+"%").
		Pluck("hospital_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("scan hospital ids: %w", err)
	}

	maxByBase := make(map[string]int64)
	for _, id := range ids {
		m := pattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		if n > maxByBase[m[1]] {
			maxByBase[m[1]] = n
		}
	}

	for base, value := range maxByBase {
		key := sequence.Key{Type: sequence.TypeHospitalID, Scope: base}
		if err := alloc.AdvanceTo(ctx, key, value); err != nil {
			return nil, err
		}
		util.LogCounterSynced(sequence.TypeHospitalID, base, value)
	}
	return maxByBase, nil
}

// SyncPatientUHIDCounter raises the UHID counter to the highest UHID stored.
func SyncPatientUHIDCounter(ctx context.Context, db *gorm.DB, alloc *sequence.Allocator) (int64, error) {
	policy, err := alloc.Policy(sequence.TypePatientUHID)
	if err != nil {
		return 0, err
	}
	if policy.Strategy != sequence.StrategySequential {
		return 0, nil
	}

	var uhids []string
	if err := db.WithContext(ctx).Unscoped().Model(&model.Patient{}).
		Where("uhid LIKE ?", policy.Prefix+"%").
		Pluck("uhid", &uhids).Error; err != nil {
		return 0, fmt.Errorf("scan patient uhids: %w", err)
	}

	highest := maxSuffix(uhids, policy.Prefix)
	if highest == 0 {
		return 0, nil
	}
	key := alloc.KeyFor(policy, 0)
	if err := alloc.AdvanceTo(ctx, key, highest); err != nil {
		return 0, err
	}
	util.LogCounterSynced(policy.Type, key.Scope, highest)
	return highest, nil
}

// SyncBillCounters raises each clinic's bill counter to its highest bill
// number. Random bill numbers carry no sequence and are skipped.
func SyncBillCounters(ctx context.Context, db *gorm.DB, alloc *sequence.Allocator) (map[uint]int64, error) {
	policy, err := alloc.Policy(sequence.TypeBill)
	if err != nil {
		return nil, err
	}
	result := make(map[uint]int64)
	if policy.Strategy != sequence.StrategySequential || policy.Scope != sequence.ScopeClinic {
		return result, nil
	}

	var rows []struct {
		ClinicID   uint
		BillNumber string
	}
	if err := db.WithContext(ctx).Unscoped().Model(&model.Bill{}).
		Select("clinic_id", "bill_number").
		Where("bill_number LIKE ?", policy.Prefix+"%").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("scan bill numbers: %w", err)
	}

	perClinic := make(map[uint][]string)
	for _, row := range rows {
		perClinic[row.ClinicID] = append(perClinic[row.ClinicID], row.BillNumber)
	}
	for clinicID, numbers := range perClinic {
		highest := maxSuffix(numbers, policy.Prefix)
		if highest == 0 {
			continue
		}
		key := alloc.KeyFor(policy, clinicID)
		if err := alloc.AdvanceTo(ctx, key, highest); err != nil {
			return nil, err
		}
		util.LogCounterSynced(policy.Type, key.Scope, highest)
		result[clinicID] = highest
	}
	return result, nil
}

// BackfillPatientUHIDs assigns a UHID to every patient that lacks one, in
// id order. The counter is synced first so backfilled UHIDs never collide
// with ones already issued. Returns the number of patients updated.
func BackfillPatientUHIDs(ctx context.Context, db *gorm.DB, alloc *sequence.Allocator) (int, error) {
	if _, err := SyncPatientUHIDCounter(ctx, db, alloc); err != nil {
		return 0, err
	}

	assigned := 0
	var lastID uint
	for {
		var patients []model.Patient
		if err := db.WithContext(ctx).
			Where("(uhid IS NULL OR uhid = '') AND id > ?", lastID).
			Order("id").Limit(backfillBatchSize).
			Find(&patients).Error; err != nil {
			return assigned, fmt.Errorf("load patients without uhid: %w", err)
		}
		if len(patients) == 0 {
			return assigned, nil
		}

		for _, patient := range patients {
			lastID = patient.ID
			uhid, err := alloc.PatientUHID(ctx)
			if err != nil {
				return assigned, err
			}
			ok, err := AssignUHID(ctx, db, patient.ID, uhid)
			if err != nil {
				return assigned, err
			}
			if ok {
				assigned++
			}
		}
	}
}

// AssignUHID sets uhid on a patient that has none yet. It reports false when
// another writer assigned one first; the allocated number is then left unused.
func AssignUHID(ctx context.Context, db *gorm.DB, patientID uint, uhid string) (bool, error) {
	res := db.WithContext(ctx).Model(&model.Patient{}).
		Where("id = ? AND (uhid IS NULL OR uhid = '')", patientID).
		Update("uhid", uhid)
	if res.Error != nil {
		return false, fmt.Errorf("assign uhid: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func maxSuffix(values []string, prefix string) int64 {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
	var highest int64
	for _, v := range values {
		m := pattern.FindStringSubmatch(v)
		if m == nil {
			continue
		}
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
