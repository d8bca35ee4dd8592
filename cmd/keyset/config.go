package main

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"multicipher"
	"multicipher/keyset"
	"multicipher/primitive"
)

// config is read from an optional YAML file; flags override its values.
type config struct {
	keyset.Spec `yaml:",inline"`

	// hex encoded, at least keyset.MinSecretLength bytes
	Secret   string `yaml:"secret"`
	LogLevel string `yaml:"logLevel"`
	// restricts the key set to these algorithms, all supported ones if empty
	Algorithms []string `yaml:"algorithms"`
}

func defaultConfig() *config {
	return &config{
		Spec:     keyset.Spec{KeyLength: 256, CipherSteps: 3},
		LogLevel: "info",
	}
}

func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

func (cfg *config) applyFlags(c *cli.Context) {
	if c.IsSet("key-length") {
		cfg.KeyLength = c.Int("key-length")
	}
	if c.IsSet("steps") {
		cfg.CipherSteps = c.Int("steps")
	}
	if c.IsSet("secret") {
		cfg.Secret = c.String("secret")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("algorithms") {
		cfg.Algorithms = strings.Split(c.String("algorithms"), ",")
	}
}

func (cfg *config) factory() (*primitive.Factory, error) {
	f := primitive.NewFactory()
	if len(cfg.Algorithms) == 0 {
		return f, nil
	}
	algs := make([]primitive.Algorithm, len(cfg.Algorithms))
	for i, name := range cfg.Algorithms {
		a, err := primitive.ParseAlgorithm(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		algs[i] = a
	}
	return f.Restrict(algs...), nil
}

// fromContext loads the file named by --config, applies the other flags
// and the log level.
func fromContext(c *cli.Context) (*config, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.applyFlags(c)
	if err := multicipher.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.LogLevel)
	}
	return cfg, cfg.Spec.Validate()
}

// keySet derives the key set of the configured secret.
func (cfg *config) keySet() (*keyset.KeySet, error) {
	if cfg.Secret == "" {
		return nil, errors.New("no secret configured, use --secret or the secret key of --config")
	}
	secret, err := hex.DecodeString(cfg.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "decoding secret")
	}
	factory, err := cfg.factory()
	if err != nil {
		return nil, err
	}
	ks, err := keyset.New(cfg.Spec, factory)
	if err != nil {
		return nil, err
	}
	if err := ks.BuildFromSecret(secret); err != nil {
		return nil, err
	}
	return ks, nil
}
