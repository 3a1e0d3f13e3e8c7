package config

const (
	defaultDataDir        = "~/.local/share/cratechef"
	defaultDatabaseName   = "tracks.db"
	defaultLogDirName     = "logs"
	defaultSniffBytes     = 4096
	defaultMinFileBytes   = 1024
	defaultBadSampleLimit = 5
	defaultAPIBind        = "127.0.0.1:8000"
	defaultRecentLimit    = 10
	defaultRecentMax      = 100
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// defaultAudioExtensions lists the containers the library scanner hands to the
// tag reader.
var defaultAudioExtensions = []string{
	".mp3", ".m4a", ".aac", ".wav", ".aiff", ".aif",
	".flac", ".ogg", ".oga", ".m4b", ".alac",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	extensions := make([]string, len(defaultAudioExtensions))
	copy(extensions, defaultAudioExtensions)
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Import: Import{
			SniffBytes: defaultSniffBytes,
		},
		Scan: Scan{
			Extensions:     extensions,
			MinFileBytes:   defaultMinFileBytes,
			BadSampleLimit: defaultBadSampleLimit,
		},
		API: API{
			Bind:          defaultAPIBind,
			RecentDefault: defaultRecentLimit,
			RecentMax:     defaultRecentMax,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
