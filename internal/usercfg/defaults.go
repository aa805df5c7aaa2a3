package usercfg

const (
	// DefaultPollSeconds is the board refresh cadence when the config does not
	// set one. Short enough that a colleague's change shows up quickly.
	DefaultPollSeconds = 15

	// MinPollSeconds is the floor for the configured cadence.
	MinPollSeconds = 2

	// DefaultAbandonCycles is how many poll cycles an unconfirmed local change
	// may shadow the server before it is given up on.
	DefaultAbandonCycles = 3
)

func getDefaults() Config {
	return Config{
		SchemaVersion: CurrentSchemaVersion,
		ServerURL:     "",
		Email:         "",
		Board:         "",
		PollSeconds:   DefaultPollSeconds,
		AbandonCycles: DefaultAbandonCycles,
		UIPrefs: UIPreferences{
			FuzzySearch:     true,
			ShowCardNumbers: true,
		},
	}
}
