package cli

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/mailusage/internal/logging"
	"github.com/idelchi/mailusage/internal/source"
)

// EnvPrefix prefixes environment variables overriding configuration keys,
// e.g. MAILUSAGE_SOURCE_KIND.
const EnvPrefix = "MAILUSAGE"

// Source kinds.
const (
	SourceWHM     = "whm"
	SourceMaildir = "maildir"
)

// Options holds the command-line flags.
type Options struct {
	// Sort is the account ranking mode.
	Sort string `validate:"oneof=total_size mailbox domain"`
	// Top enables the top-N view when > 0.
	Top int `validate:"gte=0"`
	// Users is a comma-separated list of accounts replacing discovery.
	Users string
	// Output is the CSV export path.
	Output string
	// HideEmpty drops mailboxes with zero usage.
	HideEmpty bool
	// Format is the report format (table or json).
	Format string `validate:"oneof=table json"`
	// ConfigFile is an optional configuration file.
	ConfigFile string
	// Debug enables debug logging.
	Debug bool
	// NoColor disables ANSI styling.
	NoColor bool
}

// SourceConfig selects and configures the data source.
type SourceConfig struct {
	Kind        string `mapstructure:"kind"         validate:"oneof=whm maildir"`
	WHMAPI      string `mapstructure:"whmapi"       validate:"required_if=Kind whm"`
	UAPI        string `mapstructure:"uapi"         validate:"required_if=Kind whm"`
	MaildirRoot string `mapstructure:"maildir_root" validate:"required_if=Kind maildir"`
}

// Config holds settings read from the configuration file, environment and flags.
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	// ServerName overrides the host name printed in the summary.
	ServerName string         `mapstructure:"server_name"`
	Log        logging.Config `mapstructure:"log"`
}

//nolint:gochecknoglobals // Lazily built validator
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorEngine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// Validate checks options and configuration.
func Validate(opt Options, cfg Config) error {
	if err := validatorEngine().Struct(opt); err != nil {
		return describe(err)
	}

	if err := validatorEngine().Struct(cfg); err != nil {
		return describe(err)
	}

	return nil
}

// describe turns validator errors into a single readable error.
func describe(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	msgs := make([]string, 0, len(errs))

	for _, fe := range errs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: must be one of [%s]", strings.ToLower(fe.Field()), fe.Value(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s cannot be negative", strings.ToLower(fe.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		}
	}

	return errors.New(strings.Join(msgs, "; "))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", SourceWHM)
	v.SetDefault("source.whmapi", source.DefaultWHMAPI)
	v.SetDefault("source.uapi", source.DefaultUAPI)
	v.SetDefault("source.maildir_root", source.DefaultMaildirRoot)
	v.SetDefault("server_name", "")
	v.SetDefault("log.level", logging.DefaultLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logging.DefaultMaxSize)
	v.SetDefault("log.max_backups", logging.DefaultMaxBackups)
}

// LoadConfig resolves the configuration from defaults, the optional file at
// path, MAILUSAGE_* environment variables and the bound flags, in increasing
// order of precedence.
func LoadConfig(flags *pflag.FlagSet, path string) (Config, error) {
	var cfg Config

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	bindings := map[string]string{
		"source.kind":         "source",
		"source.maildir_root": "maildir-root",
	}

	for key, name := range bindings {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return cfg, fmt.Errorf("binding flag %q: %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	return cfg, nil
}
