package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileType_Valid(t *testing.T) {
	assert.True(t, ProfileTypePT.Valid())
	assert.True(t, ProfileTypeCenter.Valid())
	assert.False(t, ProfileType("Gym").Valid())
	assert.False(t, ProfileType("pt").Valid())
	assert.False(t, ProfileType("").Valid())
}

func TestProfileType_BusinessType(t *testing.T) {
	assert.Equal(t, "Personal Trainer", ProfileTypePT.BusinessType())
	assert.Equal(t, "Fitness Center", ProfileTypeCenter.BusinessType())
}

func TestClampCount(t *testing.T) {
	assert.Equal(t, 20, ClampCount(0), "zero takes the default")
	assert.Equal(t, 1, ClampCount(-5))
	assert.Equal(t, 1, ClampCount(1))
	assert.Equal(t, 42, ClampCount(42))
	assert.Equal(t, 100, ClampCount(100))
	assert.Equal(t, 100, ClampCount(500))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 10, Confidence(1))
	assert.Equal(t, 0, Confidence(0))
	assert.Equal(t, 0, Confidence(-3))
	assert.Equal(t, 25, Confidence(2.5))
	assert.Equal(t, 100, Confidence(10))
	assert.Equal(t, 100, Confidence(50))
}

func TestValidLeadStatus(t *testing.T) {
	for _, s := range LeadStatuses {
		assert.True(t, ValidLeadStatus(string(s)))
	}
	assert.False(t, ValidLeadStatus("archived"))
	assert.False(t, ValidLeadStatus(""))
}
