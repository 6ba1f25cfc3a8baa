package neo

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
)

// Snapshot is the raw account payload returned by the location endpoint,
// kept verbatim as decoded JSON. The Parse* functions below are pure
// transformations over it: no I/O, no mutation of the input.
type Snapshot map[string]any

type rawBlind struct {
	Name       string `mapstructure:"name"`
	HasPercent bool   `mapstructure:"hasPercent"`
	MotorCode  string `mapstructure:"motorCode"`
	TDBU       bool   `mapstructure:"tdbu"`
}

type rawRoom struct {
	Name       string               `mapstructure:"name"`
	Controller string               `mapstructure:"controller"`
	Token      string               `mapstructure:"token"`
	Blinds     map[string]*rawBlind `mapstructure:"blinds"`
}

type rawSchedule struct {
	Room    string `mapstructure:"room"`
	Time    string `mapstructure:"time"`
	Type    string `mapstructure:"type"`
	Days    int    `mapstructure:"days"`
	Command string `mapstructure:"command"`
	Enabled bool   `mapstructure:"enabled"`
}

// decodeSection decodes one top-level snapshot section into typed raw
// records. The vendor payload is loosely typed, hence the weak decoding.
func decodeSection[T any](snapshot Snapshot, section string) (map[string]T, error) {
	raw, ok := snapshot[section].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var out map[string]T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", section, err)
	}
	return out, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// zeroPad left-pads a channel number to two digits.
func zeroPad(ch string) string {
	for len(ch) < 2 {
		ch = "0" + ch
	}
	return ch
}

// BlindCode composes the wire identifier of one blind on a controller.
func BlindCode(roomToken, channel string) string {
	return roomToken + "-" + zeroPad(channel)
}

// ParseBlinds flattens the snapshot into one record per occupied blind slot.
// Rooms without a controller id or room token are skipped, as are empty
// channel slots. Duplicate entries collapsing to the same unique id are
// deduplicated first-seen-wins; rooms are walked in stable key order so
// "first seen" is deterministic.
func ParseBlinds(snapshot Snapshot) []Blind {
	rooms, err := decodeSection[rawRoom](snapshot, "rooms")
	if err != nil {
		log.Error().Err(err).Msg("Malformed rooms section in snapshot")
		return nil
	}
	if len(rooms) == 0 {
		log.Warn().Msg("No rooms found in snapshot")
		return nil
	}

	seen := make(map[string]struct{})
	var blinds []Blind
	for _, roomID := range sortedKeys(rooms) {
		room := rooms[roomID]
		if room.Controller == "" || room.Token == "" {
			continue
		}
		for _, channel := range sortedKeys(room.Blinds) {
			blind := room.Blinds[channel]
			if blind == nil {
				continue
			}
			code := BlindCode(room.Token, channel)
			uniqueID := fmt.Sprintf("%s_%s", room.Controller, code)
			if _, dup := seen[uniqueID]; dup {
				continue
			}
			seen[uniqueID] = struct{}{}

			motor := blind.MotorCode
			if motor == "" {
				motor = "unknown"
			}
			blinds = append(blinds, Blind{
				UniqueID:     uniqueID,
				Name:         blind.Name,
				RoomName:     room.Name,
				BlindCode:    code,
				ControllerID: room.Controller,
				HasPercent:   blind.HasPercent,
				MotorCode:    motor,
				IsTDBU:       blind.TDBU,
			})
		}
	}
	return blinds
}

// ParseRooms emits one group record per room that has at least one occupied
// blind slot, listing every blind code in the room.
func ParseRooms(snapshot Snapshot) []RoomGroup {
	rooms, err := decodeSection[rawRoom](snapshot, "rooms")
	if err != nil {
		log.Error().Err(err).Msg("Malformed rooms section in snapshot")
		return nil
	}
	if len(rooms) == 0 {
		return nil
	}

	var groups []RoomGroup
	for _, roomID := range sortedKeys(rooms) {
		room := rooms[roomID]
		if room.Controller == "" || room.Token == "" {
			continue
		}
		var codes []string
		for _, channel := range sortedKeys(room.Blinds) {
			if room.Blinds[channel] == nil {
				continue
			}
			codes = append(codes, BlindCode(room.Token, channel))
		}
		if len(codes) == 0 {
			continue
		}
		groups = append(groups, RoomGroup{
			UniqueID:     fmt.Sprintf("room_%s_%s", roomID, room.Controller),
			Name:         fmt.Sprintf("Room: %s", room.Name),
			RoomName:     room.Name,
			ControllerID: room.Controller,
			BlindCodes:   codes,
		})
	}
	return groups
}

// ParseControllers emits one record per distinct controller id. The first
// room seen with a controller provides its representative name; later rooms
// sharing the controller do not overwrite it.
func ParseControllers(snapshot Snapshot) []Controller {
	rooms, err := decodeSection[rawRoom](snapshot, "rooms")
	if err != nil {
		log.Error().Err(err).Msg("Malformed rooms section in snapshot")
		return nil
	}
	if len(rooms) == 0 {
		log.Warn().Msg("No rooms found, cannot parse controllers")
		return nil
	}

	seen := make(map[string]struct{})
	var controllers []Controller
	for _, roomID := range sortedKeys(rooms) {
		room := rooms[roomID]
		if room.Controller == "" {
			continue
		}
		if _, dup := seen[room.Controller]; dup {
			continue
		}
		seen[room.Controller] = struct{}{}
		name := room.Name
		if name == "" {
			name = "Unknown Room"
		}
		controllers = append(controllers, Controller{ID: room.Controller, RoomName: name})
	}
	return controllers
}

// ParseSchedules flattens the snapshot's schedules, resolving each display
// name as "{room} {friendly command} at {time}". A schedule whose room
// reference is absent keeps a placeholder room name and carries no
// controller id, which excludes it from controllable views.
func ParseSchedules(snapshot Snapshot) []Schedule {
	schedules, err := decodeSection[rawSchedule](snapshot, "schedules")
	if err != nil {
		log.Error().Err(err).Msg("Malformed schedules section in snapshot")
		return nil
	}
	if len(schedules) == 0 {
		log.Info().Msg("No schedules found in snapshot")
		return nil
	}
	rooms, err := decodeSection[rawRoom](snapshot, "rooms")
	if err != nil {
		log.Error().Err(err).Msg("Malformed rooms section in snapshot")
		rooms = nil
	}

	var out []Schedule
	for _, scheduleID := range sortedKeys(schedules) {
		sched := schedules[scheduleID]

		roomName := "Unknown Room"
		controllerID := ""
		if room, ok := rooms[sched.Room]; ok && sched.Room != "" {
			if room.Name != "" {
				roomName = room.Name
			}
			controllerID = room.Controller
		}

		schedTime := sched.Time
		if schedTime == "" {
			schedTime = "Unknown Time"
		}

		out = append(out, Schedule{
			ID:           scheduleID,
			Name:         fmt.Sprintf("%s %s at %s", roomName, FriendlyCommandName(sched.Command), schedTime),
			RoomName:     roomName,
			ControllerID: controllerID,
			Time:         sched.Time,
			Type:         sched.Type,
			Days:         sched.Days,
			Command:      sched.Command,
			Enabled:      sched.Enabled,
		})
	}
	return out
}
