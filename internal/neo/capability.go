package neo

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Wire command vocabulary.
const (
	CmdOpen            = "up"
	CmdClose           = "dn"
	CmdStop            = "sp"
	CmdFavorite1       = "i1"
	CmdFavorite2       = "i2"
	CmdFavoriteGeneric = "gp"
	CmdMiddleUp        = "u4"
	CmdMiddleDown      = "d4"
	CmdLowerUp         = "u2"
	CmdLowerDown       = "d2"
)

// Motors with dedicated favorite slots (i1/i2). Everything else gets the
// generic favorite (gp) and has no second favorite.
var favoriteMotors = map[string]bool{
	"no": true,
	"rx": true,
}

// Motors accepting two-digit percentage commands.
var positionMotors = map[string]bool{
	"no": true, "db": true, "ra": true, "rb": true,
	"ap": true, "bl": true, "mb": true, "jo": true,
}

func motorRecognized(motorCode string) bool {
	return favoriteMotors[motorCode] || positionMotors[motorCode]
}

// FavoriteCommand returns the wire code that triggers the given favorite
// slot (1 or 2) on a motor. The vendor's capability matrix is not known to
// be exhaustive, so an unrecognized motor code logs a configuration warning
// and is treated conservatively: generic favorite only, no second slot.
func FavoriteCommand(motorCode string, slot int) (string, error) {
	if !motorRecognized(motorCode) {
		log.Warn().Str("motor_code", motorCode).Msg("Unrecognized motor code, assuming generic favorite support only")
	}
	switch slot {
	case 1:
		if favoriteMotors[motorCode] {
			return CmdFavorite1, nil
		}
		return CmdFavoriteGeneric, nil
	case 2:
		if favoriteMotors[motorCode] {
			return CmdFavorite2, nil
		}
		return "", fmt.Errorf("%w: favorite 2 on motor %q", ErrUnsupportedCommand, motorCode)
	default:
		return "", fmt.Errorf("%w: favorite slot %d", ErrUnsupportedCommand, slot)
	}
}

// PositionCommand returns the two-digit percentage command for motors that
// support positioning.
func PositionCommand(motorCode string, percent int) (string, error) {
	if percent < 0 || percent > 100 {
		return "", fmt.Errorf("%w: position %d out of range", ErrUnsupportedCommand, percent)
	}
	if !positionMotors[motorCode] {
		if !motorRecognized(motorCode) {
			log.Warn().Str("motor_code", motorCode).Msg("Unrecognized motor code, assuming no position support")
		}
		return "", fmt.Errorf("%w: position on motor %q", ErrUnsupportedCommand, motorCode)
	}
	return fmt.Sprintf("%02d", percent), nil
}

var friendlyCommands = map[string]string{
	CmdOpen:            "Open",
	CmdClose:           "Close",
	CmdStop:            "Stop",
	CmdFavorite1:       "Favorite 1",
	CmdFavorite2:       "Favorite 2",
	CmdFavoriteGeneric: "Favorite (GP)",
	"cl":               "Close",
	CmdMiddleUp:        "Middle Up",
	CmdMiddleDown:      "Middle Down",
	CmdLowerUp:         "Lower Up",
	CmdLowerDown:       "Lower Down",
}

// FriendlyCommandName translates a wire command code to a display label.
// All-numeric codes are percentage positions; anything else unknown is
// surfaced upper-cased rather than hidden.
func FriendlyCommandName(command string) string {
	if name, ok := friendlyCommands[command]; ok {
		return name
	}
	if command != "" && isDigits(command) {
		return fmt.Sprintf("Position %s%%", command)
	}
	return strings.ToUpper(command)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
