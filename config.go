package logging

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config controls every sink of the logging service. It is read once by
// Initialize and never mutated afterwards.
type Config struct {
	// Level is the minimum level that reaches any sink.
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`

	// RelLogFileDir is resolved against the service WorkingDir.
	RelLogFileDir string `yaml:"rel_log_file_dir" validate:"required"`

	// ProjectRoot anchors caller paths. Empty means: nearest directory above
	// the process working directory holding a go.mod, else the working directory.
	ProjectRoot string `yaml:"project_root"`

	// SourcePrefix is stripped from caller paths on the console only.
	SourcePrefix string `yaml:"source_prefix"`

	UTCOffsetMinutes int `yaml:"utc_offset_minutes" validate:"min=-720,max=840"`

	ErrorFile      bool `yaml:"error_file"`
	CombinedFile   bool `yaml:"combined_file"`
	Console        bool `yaml:"console"`
	ConsoleNoColor bool `yaml:"console_no_color"`

	MaxFileSizeMB    int  `yaml:"max_file_size_mb" validate:"min=1"`
	MaxRetainedFiles int  `yaml:"max_retained_files" validate:"min=1"`
	Compress         bool `yaml:"compress"`

	ShutdownTimeoutMS int `yaml:"shutdown_timeout_ms" validate:"min=0"`

	// AccessLogCaller labels records coming through AccessLogWriter.
	AccessLogCaller string `yaml:"access_log_caller" validate:"required"`

	// FallbackNoticesPerSec bounds how often sink failures are reported on stderr.
	FallbackNoticesPerSec int `yaml:"fallback_notices_per_sec" validate:"min=1"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Level:                 "info",
		RelLogFileDir:         "logs",
		UTCOffsetMinutes:      180,
		ErrorFile:             true,
		CombinedFile:          true,
		Console:               true,
		MaxFileSizeMB:         defaultMaxFileSizeMB,
		MaxRetainedFiles:      14,
		Compress:              true,
		ShutdownTimeoutMS:     2000,
		AccessLogCaller:       defaultAccessLogCaller,
		FallbackNoticesPerSec: 1,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	const op errors.Op = "logging.LoadConfig"
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.New(op).Err(err).Msg(errMsgReadConfig)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.New(op).Err(err).Msg(errMsgParseConfig)
	}
	if err = validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate *validator.Validate
var once sync.Once

func validateConfig(cfg *Config) error {
	const op errors.Op = "logging.validateConfig"
	if cfg == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}

	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(cfg); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}

	if filepath.IsAbs(cfg.RelLogFileDir) {
		return errors.New(op).Msg(errMsgRelDirAbsolute)
	}

	if !cfg.ErrorFile && !cfg.CombinedFile && !cfg.Console {
		return errors.New(op).Msg(errMsgNoSinks)
	}

	return nil
}

// detectProjectRoot walks up from dir looking for go.mod.
func detectProjectRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		if _, err = os.Stat(filepath.Join(cur, "go.mod")); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}
