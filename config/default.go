package config

func GetDefault() Config {
	return Config{
		Policies:      []string{"conventional"},
		Backend:       BackendGit,
		ChangelogPath: "CHANGELOG.md",
	}
}
