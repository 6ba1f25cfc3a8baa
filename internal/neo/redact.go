package neo

// CommandEntry is one token+channel command addressed to a controller
// identity string. Motor is a fixed marker required by the endpoint.
type CommandEntry struct {
	Token   string `json:"token"`
	Command string `json:"command"`
	Channel string `json:"channel"`
	Motor   string `json:"motor"`
	Hash    string `json:"hash"`
}

// CommandPayload is the body of a multi-transmit call, keyed by the full
// controller identity string.
type CommandPayload map[string][]CommandEntry

// RedactPayload returns a copy of the payload safe for logging: the identity
// string key is truncated and the per-command token and hash are blanked.
// The original payload is never mutated.
func RedactPayload(payload CommandPayload) CommandPayload {
	safe := make(CommandPayload, len(payload))
	for identity, entries := range payload {
		key := "[REDACTED_CONTROLLER:" + truncateID(identity) + "...]"
		copies := make([]CommandEntry, len(entries))
		for i, entry := range entries {
			entry.Token = "[REDACTED]"
			entry.Hash = "[REDACTED]"
			copies[i] = entry
		}
		safe[key] = copies
	}
	return safe
}

func truncateID(s string) string {
	if len(s) > 4 {
		return s[:4]
	}
	return s
}
