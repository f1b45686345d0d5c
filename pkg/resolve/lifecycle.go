package resolve

import (
	"strings"

	"github.com/cloudprompt/aws-devops-agent/pkg/types"
)

// actionSynonyms maps a closed set of action synonyms onto the canonical
// lifecycle actions
var actionSynonyms = map[string]string{
	"launch":   types.ActionStart,
	"run":      types.ActionStart,
	"shutdown": types.ActionStop,
	"halt":     types.ActionStop,
	"pause":    types.ActionStop,
	"restart":  types.ActionReboot,
	"delete":   types.ActionTerminate,
	"remove":   types.ActionTerminate,
	"destroy":  types.ActionTerminate,
}

// ResolveAction normalizes a lifecycle action onto {start, stop, reboot,
// terminate}. Unrecognized actions resolve to stop: between stopping and
// terminating, ambiguous intent gets the action that is reversible.
func ResolveAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))

	switch action {
	case types.ActionStart, types.ActionStop, types.ActionReboot, types.ActionTerminate:
		return action
	}

	if mapped, ok := actionSynonyms[action]; ok {
		return mapped
	}
	return types.ActionStop
}
