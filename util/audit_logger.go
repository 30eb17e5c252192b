package util

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/ariebrainware/clinic-hms/model"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType names an audited action.
type AuditEventType string

const (
	EventClinicRegistered  AuditEventType = "CLINIC_REGISTERED"
	EventPatientRegistered AuditEventType = "PATIENT_REGISTERED"
	EventUHIDAssigned      AuditEventType = "UHID_ASSIGNED"
	EventBillIssued        AuditEventType = "BILL_ISSUED"
	EventAllocationFailed  AuditEventType = "ALLOCATION_FAILED"
	EventCounterSynced     AuditEventType = "COUNTER_SYNCED"
	EventEndpointCall      AuditEventType = "ENDPOINT_CALL"
	EventRateLimitExceeded AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventTenantRejected    AuditEventType = "TENANT_REJECTED"
)

// AuditEvent represents an event to be logged and persisted.
type AuditEvent struct {
	EventType AuditEventType
	ClinicID  string
	Subject   string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var (
	auditMu     sync.RWMutex
	auditLogger = zerolog.New(os.Stdout).With().Timestamp().Str("channel", "audit").Logger()
	auditDB     *gorm.DB
)

// SetAuditLogger replaces the logger audit events are written to.
func SetAuditLogger(logger zerolog.Logger) {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditLogger = logger.With().Str("channel", "audit").Logger()
}

// SetAuditLoggerDB sets the gorm DB audit events are persisted to.
// Call this during application startup after DB initialization; nil disables persistence.
func SetAuditLoggerDB(db *gorm.DB) {
	auditMu.Lock()
	defer auditMu.Unlock()
	auditDB = db
}

func currentAuditSinks() (zerolog.Logger, *gorm.DB) {
	auditMu.RLock()
	defer auditMu.RUnlock()
	return auditLogger, auditDB
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent logs an audit event and persists it when a DB is configured.
// Persistence is best-effort and never fails the caller.
func LogAuditEvent(event AuditEvent) {
	logger, db := currentAuditSinks()

	location := GetIPLocation(event.IP).String()

	logger.Info().
		Str("event", sanitizeLogValue(string(event.EventType))).
		Str("clinic_id", sanitizeLogValue(event.ClinicID)).
		Str("subject", sanitizeLogValue(event.Subject)).
		Str("ip", sanitizeLogValue(event.IP)).
		Str("location", sanitizeLogValue(location)).
		Int("details", len(event.Details)).
		Msg(sanitizeLogValue(event.Message))

	if db == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.AuditLog{
		EventType: string(event.EventType),
		ClinicID:  sanitizeLogValue(event.ClinicID),
		Subject:   sanitizeLogValue(event.Subject),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(location),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Error().Err(err).Str("event", string(event.EventType)).Msg("failed to persist audit event")
	}
}

// LogAllocationFailed records a sequence allocation that could not complete.
func LogAllocationFailed(clinicID, sequenceType string, err error) {
	LogAuditEvent(AuditEvent{
		EventType: EventAllocationFailed,
		ClinicID:  clinicID,
		Subject:   sequenceType,
		Message:   "Sequence allocation failed",
		Details:   map[string]interface{}{"error": err.Error()},
	})
}

// LogCounterSynced records a counter raised to match existing identifiers.
func LogCounterSynced(sequenceType, scope string, value int64) {
	LogAuditEvent(AuditEvent{
		EventType: EventCounterSynced,
		Subject:   sequenceType,
		Message:   "Counter synchronized with existing identifiers",
		Details:   map[string]interface{}{"scope": scope, "value": value},
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Subject:   endpoint,
		Message:   "Rate limit exceeded for endpoint: " + endpoint,
	})
}

// LogTenantRejected logs a request whose clinic could not be resolved.
func LogTenantRejected(ip, path, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventTenantRejected,
		IP:        ip,
		Subject:   path,
		Message:   "Clinic resolution failed: " + reason,
	})
}
