package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterModel_CreateAndRead(t *testing.T) {
	db := setupTestDB(t, "counter", &Counter{})

	counter := Counter{Type: "patient_uhid", CurrentValue: 3}
	err := db.Create(&counter).Error
	assert.NoError(t, err)
	assert.NotZero(t, counter.ID)

	var found Counter
	err = db.Where("type = ? AND scope = ?", "patient_uhid", "").First(&found).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(3), found.CurrentValue)
	assert.Equal(t, "", found.Scope)
}

func TestCounterModel_UniqueTypeAndScope(t *testing.T) {
	db := setupTestDB(t, "counter_unique", &Counter{})

	assert.NoError(t, db.Create(&Counter{Type: "bill", Scope: "1"}).Error)
	assert.NoError(t, db.Create(&Counter{Type: "bill", Scope: "2"}).Error)
	assert.NoError(t, db.Create(&Counter{Type: "hospital_id", Scope: "1"}).Error)

	err := db.Create(&Counter{Type: "bill", Scope: "1"}).Error
	assert.Error(t, err)
}
