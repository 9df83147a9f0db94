// pkg/config/config.go

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	"github.com/c2h5oh/datasize"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PolicyFixed    = "fixed"
	PolicyCapacity = "capacity"

	DefaultScratchName   = "temp_sanitize_file"
	DefaultMaxIterations = 100
	DefaultBlockSize     = datasize.MB
)

// Config is the full runtime configuration of eos-sanitizer.
type Config struct {
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	Overwrite OverwriteConfig `mapstructure:"overwrite" yaml:"overwrite"`
	Journal   JournalConfig   `mapstructure:"journal" yaml:"journal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
}

// OverwriteConfig bounds how much the engine writes per invocation.
type OverwriteConfig struct {
	BlockSize       datasize.ByteSize `mapstructure:"block_size" yaml:"block_size" validate:"min=4096,max=1048576"`
	MaxIterations   int               `mapstructure:"max_iterations" yaml:"max_iterations" validate:"min=1,max=100"`
	IterationPolicy string            `mapstructure:"iteration_policy" yaml:"iteration_policy" validate:"oneof=fixed capacity"`
	ScratchName     string            `mapstructure:"scratch_name" yaml:"scratch_name" validate:"required,basename"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen" validate:"required,hostname_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Overwrite: OverwriteConfig{
			BlockSize:       DefaultBlockSize,
			MaxIterations:   DefaultMaxIterations,
			IterationPolicy: PolicyFixed,
			ScratchName:     DefaultScratchName,
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     shared.StatePath("journal"),
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Path:    shared.StatePath("telemetry.jsonl"),
		},
		API: APIConfig{
			Listen: shared.DefaultListenAddr,
		},
	}
}

// SetDefaults registers every key with v so that environment overrides resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("overwrite.block_size", d.Overwrite.BlockSize.String())
	v.SetDefault("overwrite.max_iterations", d.Overwrite.MaxIterations)
	v.SetDefault("overwrite.iteration_policy", d.Overwrite.IterationPolicy)
	v.SetDefault("overwrite.scratch_name", d.Overwrite.ScratchName)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.dir", d.Journal.Dir)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.path", d.Telemetry.Path)
	v.SetDefault("api.listen", d.API.Listen)
}

// Load resolves configuration from defaults, an optional .env file, the
// config file and EOS_SANITIZER_* environment variables, then validates it.
// An empty path searches the XDG config dir and /etc/eos-sanitizer.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eos_err.NewFilesystemError("failed to read .env file", err)
	}

	SetDefaults(v)
	cli.SetViperEnvPrefix(v, shared.EnvPrefix)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		name := strings.TrimSuffix(shared.DefaultConfigFilename, filepath.Ext(shared.DefaultConfigFilename))
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Dir(shared.ConfigPath(shared.DefaultConfigFilename)))
		v.AddConfigPath(filepath.Join("/etc", shared.AppID))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eos_err.NewFilesystemError("failed to read config file", err,
				"check that the file exists and is valid YAML")
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, eos_err.NewValidationError(cerr.Wrap(err, "failed to decode config").Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("basename", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
	})
	return v
}

// Validate checks value ranges and returns a validation error naming each bad field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag()+" "+fe.Param())
			}
			return eos_err.NewValidationError("invalid configuration: "+strings.Join(msgs, "; "),
				"block_size must be between 4KB and 1MB, max_iterations between 1 and 100")
		}
		return eos_err.NewValidationError("invalid configuration: " + err.Error())
	}
	return nil
}

// Validate checks the overwrite bounds on their own, for callers that build
// an engine without a full Config.
func (c OverwriteConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return eos_err.NewValidationError("invalid overwrite configuration: " + err.Error())
	}
	return nil
}
