package neo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteCommand(t *testing.T) {
	tests := []struct {
		name    string
		motor   string
		slot    int
		want    string
		wantErr bool
	}{
		{"dedicated slot 1", "no", 1, CmdFavorite1, false},
		{"dedicated slot 2", "rx", 2, CmdFavorite2, false},
		{"generic fallback slot 1", "db", 1, CmdFavoriteGeneric, false},
		{"no second slot on generic motor", "db", 2, "", true},
		{"unrecognized motor gets generic slot 1", "zz", 1, CmdFavoriteGeneric, false},
		{"unrecognized motor has no slot 2", "zz", 2, "", true},
		{"invalid slot", "no", 3, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FavoriteCommand(tt.motor, tt.slot)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPositionCommand(t *testing.T) {
	got, err := PositionCommand("no", 5)
	require.NoError(t, err)
	assert.Equal(t, "05", got)

	got, err = PositionCommand("ra", 80)
	require.NoError(t, err)
	assert.Equal(t, "80", got)

	_, err = PositionCommand("rx", 50)
	assert.ErrorIs(t, err, ErrUnsupportedCommand)

	_, err = PositionCommand("no", 101)
	assert.ErrorIs(t, err, ErrUnsupportedCommand)

	_, err = PositionCommand("no", -1)
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestFriendlyCommandName(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"up", "Open"},
		{"dn", "Close"},
		{"cl", "Close"},
		{"sp", "Stop"},
		{"i1", "Favorite 1"},
		{"i2", "Favorite 2"},
		{"gp", "Favorite (GP)"},
		{"u4", "Middle Up"},
		{"d2", "Lower Down"},
		{"42", "Position 42%"},
		{"05", "Position 05%"},
		{"xy", "XY"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FriendlyCommandName(tt.command), "command %q", tt.command)
	}
}
