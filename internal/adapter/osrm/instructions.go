package osrm

import (
	"fmt"
	"strings"
)

// instructionText translates an OSRM maneuver into a Vietnamese driving
// instruction, appending the street name when one is known.
func instructionText(m maneuver, streetName string) string {
	var action string
	switch m.Type {
	case "depart":
		action = "Khởi hành"
	case "arrive":
		return "Bạn đã đến đích"
	case "turn", "fork", "end of road":
		switch {
		case strings.Contains(m.Modifier, "left"):
			action = "Rẽ trái"
		case strings.Contains(m.Modifier, "right"):
			action = "Rẽ phải"
		default:
			action = "Rẽ"
		}
	case "roundabout":
		exit := m.Exit
		if exit == 0 {
			exit = 1
		}
		action = fmt.Sprintf("Đi vào vòng xuyến (lối ra %d)", exit)
	default:
		action = "Đi tiếp"
	}

	if streetName != "" {
		return action + " vào " + streetName
	}
	return action
}
