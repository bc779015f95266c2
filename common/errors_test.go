package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	var nilErr *ValidationError
	assert.Equal(t, "", nilErr.Error())
	assert.False(t, nilErr.HasErrors())

	v := &ValidationError{}
	assert.Equal(t, "validation failed", v.Error())
	assert.Nil(t, v.OrNil())

	v.Add("start_time", "must be before end_time")
	v.Add("day_of_week", "must be between 0 and 6")
	assert.True(t, v.HasErrors())
	assert.Equal(t, "validation failed: day_of_week: must be between 0 and 6; start_time: must be before end_time", v.Error())

	var target *ValidationError
	assert.True(t, errors.As(v.OrNil(), &target))
}

func TestCurrentUserIs(t *testing.T) {
	u := CurrentUser{Role: RoleBarber}
	assert.True(t, u.Is(RoleBarber))
	assert.False(t, u.Is(RoleAdmin))
}
