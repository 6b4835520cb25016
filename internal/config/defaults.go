package config

const (
	defaultDataDir         = "~/.local/share/lipsync"
	defaultStagingDir      = "~/.local/share/lipsync/staging"
	defaultPoseDir         = "~/.local/share/lipsync/poses"
	defaultSceneDB         = "~/.local/share/lipsync/scene.db"
	defaultLogDir          = "~/.local/share/lipsync/logs"
	defaultLanguage        = "english"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultAlignerTimeout  = 1800
	defaultStagingMaxHours = 24
	defaultFFprobeBinary   = "ffprobe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			PoseDir:    defaultPoseDir,
			SceneDB:    defaultSceneDB,
			LogDir:     defaultLogDir,
		},
		Language: Language{
			Default: defaultLanguage,
		},
		Aligner: AlignerDefaults{
			TimeoutSeconds: defaultAlignerTimeout,
			FFprobeBinary:  defaultFFprobeBinary,
		},
		Staging: Staging{
			MaxAgeHours: defaultStagingMaxHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
