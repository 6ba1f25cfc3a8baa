package bridge

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MrToast99/neobridge/internal/mqtt"
	"github.com/MrToast99/neobridge/internal/neo"
)

// Bridge is the host-side adapter. The cloud client hands it flat lists of
// blinds, rooms, controllers and schedules; the bridge publishes them as
// retained MQTT topics and turns inbound set topics into dispatcher calls.
// It never reaches into the client beyond its public surface.
type Bridge struct {
	cloud           *neo.Client
	broker          *mqtt.Client
	refreshInterval time.Duration
	onFatal         func(error)

	ctx context.Context

	mu        sync.RWMutex
	blinds    map[string]neo.Blind
	rooms     map[string]neo.RoomGroup
	schedules map[string]neo.Schedule
}

// actionResult is published on a result topic after every dispatch.
type actionResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// New creates a Bridge. onFatal is invoked when the poll loop hits an
// authentication failure that re-login from credentials cannot fix.
func New(cloud *neo.Client, broker *mqtt.Client, refreshInterval time.Duration, onFatal func(error)) *Bridge {
	if onFatal == nil {
		onFatal = func(error) {}
	}
	return &Bridge{
		cloud:           cloud,
		broker:          broker,
		refreshInterval: refreshInterval,
		onFatal:         onFatal,
		blinds:          make(map[string]neo.Blind),
		rooms:           make(map[string]neo.RoomGroup),
		schedules:       make(map[string]neo.Schedule),
	}
}

// Start logs in, publishes the first snapshot and subscribes to command
// topics. Login and first-snapshot errors propagate so setup fails loudly.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx

	if err := b.cloud.Login(ctx); err != nil {
		return err
	}
	if err := b.refresh(ctx); err != nil {
		return err
	}
	if err := b.subscribe(); err != nil {
		return err
	}
	if err := b.broker.Publish("availability", "online", true); err != nil {
		log.Warn().Err(err).Msg("Failed to publish availability")
	}

	go b.pollLoop(ctx)
	log.Info().Dur("refresh_interval", b.refreshInterval).Msg("Bridge started")
	return nil
}

// Stop marks the bridge unavailable. The poll loop ends with the context.
func (b *Bridge) Stop() {
	if err := b.broker.Publish("availability", "offline", true); err != nil {
		log.Warn().Err(err).Msg("Failed to publish availability")
	}
}

// pollLoop re-fetches the snapshot periodically. The cloud sends no push
// events; polling is the only way state changes become visible.
func (b *Bridge) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(b.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.refresh(ctx); err != nil {
				if neo.IsAuthError(err) {
					b.onFatal(err)
					return
				}
				// Transport trouble is transient, try again next tick.
				log.Error().Err(err).Msg("Snapshot refresh failed")
			}
		}
	}
}

// refresh fetches a snapshot, rebuilds the lookup tables and republishes
// the retained config topics.
func (b *Bridge) refresh(ctx context.Context) error {
	snapshot, err := b.cloud.FetchSnapshot(ctx)
	if err != nil {
		return err
	}

	blinds := neo.ParseBlinds(snapshot)
	rooms := neo.ParseRooms(snapshot)
	controllers := neo.ParseControllers(snapshot)
	schedules := neo.ParseSchedules(snapshot)

	b.mu.Lock()
	b.blinds = make(map[string]neo.Blind, len(blinds))
	for _, blind := range blinds {
		b.blinds[blind.UniqueID] = blind
	}
	b.rooms = make(map[string]neo.RoomGroup, len(rooms))
	for _, room := range rooms {
		b.rooms[room.UniqueID] = room
	}
	b.schedules = make(map[string]neo.Schedule, len(schedules))
	for _, sched := range schedules {
		if sched.Controllable() {
			b.schedules[sched.ID] = sched
		}
	}
	b.mu.Unlock()

	for _, blind := range blinds {
		b.publishConfig("blind/"+blind.UniqueID+"/config", blind)
	}
	for _, room := range rooms {
		b.publishConfig("room/"+room.UniqueID+"/config", room)
	}
	for _, controller := range controllers {
		b.publishConfig("controller/"+controller.ID+"/config", controller)
	}
	for _, sched := range schedules {
		if sched.Controllable() {
			b.publishConfig("schedule/"+sched.ID+"/config", sched)
		}
	}

	log.Info().
		Int("blinds", len(blinds)).
		Int("rooms", len(rooms)).
		Int("controllers", len(controllers)).
		Int("schedules", len(schedules)).
		Msg("Snapshot published")
	return nil
}

func (b *Bridge) publishConfig(topic string, payload any) {
	if err := b.broker.Publish(topic, payload, true); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish config")
	}
}

func (b *Bridge) subscribe() error {
	if err := b.broker.Subscribe("blind/+/set", b.handleBlindSet); err != nil {
		return err
	}
	if err := b.broker.Subscribe("room/+/set", b.handleRoomSet); err != nil {
		return err
	}
	return b.broker.Subscribe("schedule/+/enable", b.handleScheduleEnable)
}

func (b *Bridge) handleBlindSet(topic string, payload []byte) {
	_, id, _, ok := splitTopic(topic)
	if !ok {
		return
	}
	b.mu.RLock()
	blind, known := b.blinds[id]
	b.mu.RUnlock()
	if !known {
		log.Warn().Str("blind", id).Msg("Action for unknown blind")
		return
	}

	action := string(payload)
	command, err := blindAction(action, blind)
	if err != nil {
		log.Warn().Err(err).Str("blind", id).Msg("Rejected blind action")
		b.publishResult("blind/"+id+"/result", actionResult{Action: action, Error: err.Error()})
		return
	}

	ok = b.cloud.SendCommand(b.ctx, blind.ControllerID, blind.BlindCode, command)
	b.publishResult("blind/"+id+"/result", actionResult{Action: action, Success: ok})
}

func (b *Bridge) handleRoomSet(topic string, payload []byte) {
	_, id, _, ok := splitTopic(topic)
	if !ok {
		return
	}
	b.mu.RLock()
	room, known := b.rooms[id]
	b.mu.RUnlock()
	if !known {
		log.Warn().Str("room", id).Msg("Action for unknown room")
		return
	}

	action := string(payload)
	command, err := roomAction(action)
	if err != nil {
		log.Warn().Err(err).Str("room", id).Msg("Rejected room action")
		b.publishResult("room/"+id+"/result", actionResult{Action: action, Error: err.Error()})
		return
	}

	ok = b.cloud.SendRoomCommand(b.ctx, room, command)
	b.publishResult("room/"+id+"/result", actionResult{Action: action, Success: ok})
}

func (b *Bridge) handleScheduleEnable(topic string, payload []byte) {
	_, id, _, ok := splitTopic(topic)
	if !ok {
		return
	}
	b.mu.RLock()
	_, known := b.schedules[id]
	b.mu.RUnlock()
	if !known {
		log.Warn().Str("schedule", id).Msg("Toggle for unknown or uncontrollable schedule")
		return
	}

	enabled, err := strconv.ParseBool(string(payload))
	if err != nil {
		log.Warn().Str("schedule", id).Str("payload", string(payload)).Msg("Rejected schedule toggle")
		b.publishResult("schedule/"+id+"/result", actionResult{Action: string(payload), Error: "expected true or false"})
		return
	}

	ok = b.cloud.SetScheduleState(b.ctx, id, enabled)
	b.publishResult("schedule/"+id+"/result", actionResult{Action: strconv.FormatBool(enabled), Success: ok})
}

func (b *Bridge) publishResult(topic string, result actionResult) {
	if err := b.broker.Publish(topic, result, false); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to publish result")
	}
}
