package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		status         Status
		ignoreWarnings bool
		want           bool
	}{
		{StatusPass, false, true},
		{StatusPass, true, true},
		{StatusWarn, false, true},
		{StatusWarn, true, true},
		{StatusFail, false, false},
		{StatusFail, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			outcome := Decide(tt.status, tt.ignoreWarnings)
			assert.Equal(t, tt.want, outcome.Continue)
			assert.Equal(t, tt.status, outcome.Status)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", Status(0).String())
}
