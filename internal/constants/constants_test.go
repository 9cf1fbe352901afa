package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "entwine", AppName)
	assert.Equal(t, "entwine", CommandName)
	assert.Equal(t, "1329500", SteamAppID)
}

func TestGameBinariesIncludeTheLaunchedExecutable(t *testing.T) {
	binaries := GameBinaries()
	assert.Equal(t, "SpiderHeck.exe", binaries[0])
	assert.Contains(t, binaries, GameExecutable)

	binaries[0] = "changed"
	assert.Equal(t, "SpiderHeck.exe", GameBinaries()[0])
}
