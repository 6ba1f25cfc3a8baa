package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrToast99/neobridge/internal/neo"
)

func TestSplitTopic(t *testing.T) {
	kind, id, leaf, ok := splitTopic("blind/ctrl-a_109.055-03/set")
	require.True(t, ok)
	assert.Equal(t, "blind", kind)
	assert.Equal(t, "ctrl-a_109.055-03", id)
	assert.Equal(t, "set", leaf)

	_, _, _, ok = splitTopic("blind/too/many/parts")
	assert.False(t, ok)
	_, _, _, ok = splitTopic("availability")
	assert.False(t, ok)
}

func TestBlindAction(t *testing.T) {
	dedicated := neo.Blind{UniqueID: "b1", MotorCode: "no", HasPercent: true}
	generic := neo.Blind{UniqueID: "b2", MotorCode: "db", HasPercent: false}

	tests := []struct {
		name    string
		payload string
		blind   neo.Blind
		want    string
		wantErr bool
	}{
		{"open", "open", dedicated, neo.CmdOpen, false},
		{"close trims and lowers", " Close ", dedicated, neo.CmdClose, false},
		{"stop", "stop", dedicated, neo.CmdStop, false},
		{"favorite 1 dedicated", "favorite1", dedicated, neo.CmdFavorite1, false},
		{"favorite 1 generic motor", "favorite", generic, neo.CmdFavoriteGeneric, false},
		{"favorite 2 dedicated", "favorite2", dedicated, neo.CmdFavorite2, false},
		{"favorite 2 unsupported", "favorite2", generic, "", true},
		{"tdbu middle up", "middle_up", dedicated, neo.CmdMiddleUp, false},
		{"position", "position 42", dedicated, "42", false},
		{"bare percent", "7", dedicated, "07", false},
		{"position without capability", "position 42", generic, "", true},
		{"garbage", "launch", dedicated, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := blindAction(tt.payload, tt.blind)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoomAction(t *testing.T) {
	got, err := roomAction("open")
	require.NoError(t, err)
	assert.Equal(t, neo.CmdOpen, got)

	got, err = roomAction("CLOSE")
	require.NoError(t, err)
	assert.Equal(t, neo.CmdClose, got)

	// Rooms only take the basic motion commands.
	_, err = roomAction("favorite1")
	assert.Error(t, err)
}
