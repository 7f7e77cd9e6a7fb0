package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCompanyStatus(t *testing.T) {
	for _, s := range []string{CompanyStatusActive, CompanyStatusPending, CompanyStatusInactive, CompanyStatusSuspended} {
		assert.True(t, IsValidCompanyStatus(s), s)
	}
	assert.False(t, IsValidCompanyStatus("ACTIVE"), "statuses are lowercase")
	assert.False(t, IsValidCompanyStatus("deleted"))
	assert.False(t, IsValidCompanyStatus(""))
}
