// Package constants names the tool and the game it manages.
package constants

const (
	// AppName is the project identifier used in logs, metadata and the settings directory.
	AppName = "entwine"
	// CommandName is the primary CLI command name.
	CommandName = "entwine"
)

const (
	GameName   = "SpiderHeck"
	SteamAppID = "1329500"
	// GameExecutable is started directly by the executable launch method.
	GameExecutable = "SpiderHeckApp.exe"
)

// GameBinaries returns the file names whose presence marks a directory as a game installation.
func GameBinaries() []string {
	return []string{GameName + ".exe", GameExecutable, GameName + ".x86_64", GameName}
}
