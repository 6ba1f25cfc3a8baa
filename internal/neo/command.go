package neo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SendCommand transmits a single command to one blind. It reports boolean
// success and never returns an error: command failures must not break the
// rest of the integration, and the caller should reflect device state only
// on a confirmed send. An unresolved controller or malformed blind code
// fails immediately without touching the network.
func (c *Client) SendCommand(ctx context.Context, controllerID, blindCode, command string) bool {
	identity, ok := c.directory.Resolve(controllerID)
	if !ok {
		c.log.Error().Str("controller_id", controllerID).Msg("No identity string for controller, command not sent")
		c.obs.CommandResult(false)
		return false
	}

	token, channel, ok := strings.Cut(blindCode, "-")
	if !ok || token == "" || channel == "" {
		c.log.Error().Str("blind_code", blindCode).Msg("Invalid blind code format")
		c.obs.CommandResult(false)
		return false
	}

	payload := CommandPayload{
		identity: {{
			Token:   token,
			Command: command,
			Channel: channel,
			Motor:   "no",
			Hash:    CommandHash(),
		}},
	}
	c.logCommandPayload(payload)

	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to encode command payload")
		c.obs.CommandResult(false)
		return false
	}
	if _, err := c.Request(ctx, http.MethodPost, "/esp32/multi-transmit", body); err != nil {
		// Error-path logging is always redacted, regardless of mode.
		c.log.Error().Err(err).
			Interface("payload", RedactPayload(payload)).
			Msg("Failed to send command")
		c.obs.CommandResult(false)
		return false
	}

	c.log.Info().Str("command", command).Str("controller_id", controllerID).Msg("Command sent")
	c.obs.CommandResult(true)
	return true
}

// SendRoomCommand addresses every blind in a room group. A batch is N
// independent single-blind sends; one failed send does not roll back the
// others. Returns true only if all sends succeeded.
func (c *Client) SendRoomCommand(ctx context.Context, group RoomGroup, command string) bool {
	allOK := true
	for _, code := range group.BlindCodes {
		if !c.SendCommand(ctx, group.ControllerID, code, command) {
			allOK = false
		}
	}
	return allOK
}

// SetScheduleState enables or disables a cloud schedule. Same contract as
// SendCommand: boolean success, failures logged and swallowed.
func (c *Client) SetScheduleState(ctx context.Context, scheduleID string, enabled bool) bool {
	if !c.hasToken() {
		if err := c.Login(ctx); err != nil {
			c.log.Error().Err(err).Msg("Login failed, cannot set schedule state")
			return false
		}
	}

	body, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to encode schedule payload")
		return false
	}
	path := fmt.Sprintf("/location/%s/schedules/%s", c.UserID(), scheduleID)
	if _, err := c.Request(ctx, http.MethodPost, path, body); err != nil {
		c.log.Error().Err(err).Str("schedule_id", scheduleID).Msg("Failed to set schedule state")
		return false
	}

	c.log.Info().Str("schedule_id", scheduleID).Bool("enabled", enabled).Msg("Schedule state set")
	return true
}

func (c *Client) logCommandPayload(payload CommandPayload) {
	switch c.payloadLog {
	case PayloadLogFull:
		c.log.Debug().Interface("payload", payload).Msg("Sending command (unredacted)")
	case PayloadLogRedacted:
		c.log.Debug().Interface("payload", RedactPayload(payload)).Msg("Sending command")
	default:
		c.log.Debug().Msg("Sending command")
	}
}
