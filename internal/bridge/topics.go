package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MrToast99/neobridge/internal/neo"
)

// Topic layout (relative to the configured root):
//
//	availability                    retained, "online"/"offline"
//	blind/{uniqueID}/config         retained blind record
//	blind/{uniqueID}/set            inbound action
//	blind/{uniqueID}/result         outcome of the last action
//	room/{uniqueID}/config|set|result
//	controller/{id}/config
//	schedule/{id}/config|enable|result
//
// Only confirmed successes should flip state on the consuming side, so every
// dispatch answers on its result topic.

// splitTopic breaks a root-relative topic into its kind, id and leaf.
// Unique ids never contain slashes, so three segments are exactly enough.
func splitTopic(topic string) (kind, id, leaf string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// blindAction maps an inbound set payload to the wire command for a blind,
// honoring the motor's capability matrix.
func blindAction(payload string, blind neo.Blind) (string, error) {
	action := strings.ToLower(strings.TrimSpace(payload))
	switch action {
	case "open":
		return neo.CmdOpen, nil
	case "close":
		return neo.CmdClose, nil
	case "stop":
		return neo.CmdStop, nil
	case "favorite", "favorite1":
		return neo.FavoriteCommand(blind.MotorCode, 1)
	case "favorite2":
		return neo.FavoriteCommand(blind.MotorCode, 2)
	case "middle_up":
		return neo.CmdMiddleUp, nil
	case "middle_down":
		return neo.CmdMiddleDown, nil
	case "lower_up":
		return neo.CmdLowerUp, nil
	case "lower_down":
		return neo.CmdLowerDown, nil
	}

	percent, err := strconv.Atoi(strings.TrimPrefix(action, "position "))
	if err != nil {
		return "", fmt.Errorf("unknown blind action %q", payload)
	}
	if !blind.HasPercent {
		return "", fmt.Errorf("blind %s does not support positioning", blind.UniqueID)
	}
	return neo.PositionCommand(blind.MotorCode, percent)
}

// roomAction maps an inbound set payload to a wire command valid for every
// blind in a group.
func roomAction(payload string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "open":
		return neo.CmdOpen, nil
	case "close":
		return neo.CmdClose, nil
	case "stop":
		return neo.CmdStop, nil
	}
	return "", fmt.Errorf("unknown room action %q", payload)
}
