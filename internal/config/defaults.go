package config

const (
	defaultDataDir        = "~/.local/share/dossier"
	defaultLogDir         = "~/.local/share/dossier/logs"
	defaultUploadDir      = "~/.local/share/dossier/uploads"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultNtfyTimeout    = 10
	defaultMaxUploadMiB   = 20
	defaultPublicBaseURL  = ""
	defaultNotifyEnabled  = true
	defaultNotifyValidate = true
)

var defaultAllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			UploadDir:     defaultUploadDir,
			PublicBaseURL: defaultPublicBaseURL,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Transitions:    defaultNotifyEnabled,
			Validation:     defaultNotifyValidate,
		},
		Uploads: Uploads{
			MaxUploadMiB: defaultMaxUploadMiB,
			AllowedTypes: append([]string(nil), defaultAllowedTypes...),
		},
	}
}
