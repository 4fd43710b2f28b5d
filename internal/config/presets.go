package config

// Default returns the built-in settings used when no settings file is found:
// the Ace editor bundle and the standalone Python builds vendored for every
// desktop platform.
func Default() *Config {
	cfg := &Config{
		Assets: []Asset{
			{
				Name:        "ace",
				Repository:  "ajaxorg/ace-builds",
				TagStrategy: TagList,
				AssetSource: SourceTemplate,
				URLTemplate: "https://github.com/ajaxorg/ace-builds/archive/{tag}.zip",
				Format:      FormatZip,
				Payload:     "*/src-min-noconflict",
				InstallDir:  "mu/js/ace",
			},
			{
				Name:        "python",
				Repository:  "indygreg/python-build-standalone",
				TagStrategy: TagLatestRedirect,
				AssetSource: SourceRelease,
				Exclude:     []string{"musl"},
				Format:      FormatTarZst,
				Payload:     "python/install",
				InstallDir:  "python",
				Platforms: []Platform{
					{Name: "linux64"},
					{Name: "macos"},
					{Name: "windows-amd64"},
					{Name: "windows-x86"},
				},
			},
		},
	}

	// Presets are valid by construction; Validate only fills defaults here.
	_ = Validate(cfg)

	return cfg
}
