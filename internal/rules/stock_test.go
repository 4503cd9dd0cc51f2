package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drxagencia/dashboards/internal/rules"
)

func TestNextAvailability(t *testing.T) {
	yes, no := true, false

	assert.True(t, rules.NextAvailability(&no))
	assert.False(t, rules.NextAvailability(&yes))
	assert.False(t, rules.NextAvailability(nil))
}
