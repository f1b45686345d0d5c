package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

func TestResolveAction(t *testing.T) {
	tests := []struct {
		action   string
		expected string
	}{
		{"start", types.ActionStart},
		{"stop", types.ActionStop},
		{"reboot", types.ActionReboot},
		{"terminate", types.ActionTerminate},
		{"launch", types.ActionStart},
		{"run", types.ActionStart},
		{"shutdown", types.ActionStop},
		{"halt", types.ActionStop},
		{"pause", types.ActionStop},
		{"restart", types.ActionReboot},
		{"delete", types.ActionTerminate},
		{"remove", types.ActionTerminate},
		{"destroy", types.ActionTerminate},
		{"  Stop  ", types.ActionStop},
		{"RESTART", types.ActionReboot},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveAction(tt.action))
		})
	}
}

func TestResolveActionUnrecognized(t *testing.T) {
	// Ambiguous intent resolves to the reversible action
	for _, action := range []string{"", "frobnicate", "suspend forever"} {
		assert.Equal(t, types.ActionStop, ResolveAction(action))
	}
}
