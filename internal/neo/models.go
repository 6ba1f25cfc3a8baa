package neo

// Blind is one motorized blind flattened out of the account snapshot.
// UniqueID is stable across snapshots as long as the controller, room token
// and channel are unchanged.
type Blind struct {
	UniqueID     string `json:"unique_id"`
	Name         string `json:"name"`
	RoomName     string `json:"room_name"`
	BlindCode    string `json:"blind_code"`
	ControllerID string `json:"controller_id"`
	HasPercent   bool   `json:"has_percent"`
	MotorCode    string `json:"motor_code"`
	IsTDBU       bool   `json:"is_tdbu"`
}

// RoomGroup aggregates the blind codes sharing a controller and room token.
// Groups exist only for rooms with at least one occupied channel.
type RoomGroup struct {
	UniqueID     string   `json:"unique_id"`
	Name         string   `json:"name"`
	RoomName     string   `json:"room_name"`
	ControllerID string   `json:"controller_id"`
	BlindCodes   []string `json:"blind_codes"`
}

// Controller is a physical radio hub, keyed by its short id. RoomName is
// the name of the first room seen using the controller.
type Controller struct {
	ID       string `json:"id"`
	RoomName string `json:"room_name"`
}

// Schedule is a cloud-side timer. ControllerID is empty when the schedule's
// room reference is absent from the snapshot; such schedules cannot be
// addressed and must be excluded from controllable views.
type Schedule struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RoomName     string `json:"room_name"`
	ControllerID string `json:"controller_id,omitempty"`
	Time         string `json:"time"`
	Type         string `json:"type,omitempty"`
	Days         int    `json:"days"`
	Command      string `json:"command"`
	Enabled      bool   `json:"enabled"`
}

// Controllable reports whether the schedule can be addressed at all.
func (s Schedule) Controllable() bool { return s.ControllerID != "" }
