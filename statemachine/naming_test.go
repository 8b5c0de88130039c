package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"open", "Open"},
		{"force-open", "ForceOpen"},
		{"force_open", "ForceOpen"},
		{"forceOpen", "ForceOpen"},
		{"ForceOpen", "ForceOpen"},
		{"force open", "ForceOpen"},
		{"state_machine.before", "StateMachineBefore"},
		{"__open__", "Open"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, MethodName(tt.input))
		})
	}
}
