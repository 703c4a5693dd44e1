package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"hexbet/internal/commitment"
	"hexbet/internal/state"
)

// EnvPrefix prefixes environment overrides, e.g. HEXBET_ABCI_ADDR.
const EnvPrefix = "HEXBET"

// FileName is the config file written by `hexbetd init` under the home directory.
const FileName = "config.yaml"

// Config holds node and operator configuration.
type Config struct {
	Home     string         `yaml:"home" mapstructure:"home"`
	ABCI     ABCIConfig     `yaml:"abci" mapstructure:"abci"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Genesis  GenesisConfig  `yaml:"genesis" mapstructure:"genesis"`
	Exchange ExchangeConfig `yaml:"exchange" mapstructure:"exchange"`
	Operator OperatorConfig `yaml:"operator" mapstructure:"operator"`
}

type ABCIConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Transport string `yaml:"transport" mapstructure:"transport"` // socket|grpc
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// GenesisConfig seeds an empty chain at InitChain.
type GenesisConfig struct {
	Params    ParamsConfig `yaml:"params" mapstructure:"params"`
	Operators []string     `yaml:"operators" mapstructure:"operators"`
	Admins    []string     `yaml:"admins" mapstructure:"admins"`
	// Accounts are initial stake balances. Keys are lower-cased by the loader.
	Accounts map[string]uint64 `yaml:"accounts,omitempty" mapstructure:"accounts"`
	// PubKeys registers hex Ed25519 keys for accounts at genesis.
	PubKeys map[string]string `yaml:"pub_keys,omitempty" mapstructure:"pub_keys"`
}

type ParamsConfig struct {
	GapRate           uint64 `yaml:"gap_rate" mapstructure:"gap_rate"`
	TreasuryRate      uint64 `yaml:"treasury_rate" mapstructure:"treasury_rate"`
	BonusRate         uint64 `yaml:"bonus_rate" mapstructure:"bonus_rate"`
	MinStake          uint64 `yaml:"min_stake" mapstructure:"min_stake"`
	Interval          uint64 `yaml:"interval" mapstructure:"interval"`
	Buffer            uint64 `yaml:"buffer" mapstructure:"buffer"`
	PlayerPhaseBlocks uint64 `yaml:"player_phase_blocks" mapstructure:"player_phase_blocks"`
	BankerPhaseBlocks uint64 `yaml:"banker_phase_blocks" mapstructure:"banker_phase_blocks"`
}

type ExchangeConfig struct {
	// Rate is secondary-asset units per stake unit. Empty disables the exchange.
	Rate string `yaml:"rate" mapstructure:"rate"`
}

type OperatorConfig struct {
	RPC      string `yaml:"rpc" mapstructure:"rpc"`
	Account  string `yaml:"account" mapstructure:"account"`
	KeySeed  string `yaml:"key_seed" mapstructure:"key_seed"` // hex, 32 bytes
	Schedule string `yaml:"schedule" mapstructure:"schedule"` // cron spec
	SecretDB string `yaml:"secret_db" mapstructure:"secret_db"`
}

func paramsConfig(p state.Params) ParamsConfig {
	return ParamsConfig{
		GapRate:           p.GapRate,
		TreasuryRate:      p.TreasuryRate,
		BonusRate:         p.BonusRate,
		MinStake:          p.MinStake,
		Interval:          p.Interval,
		Buffer:            p.Buffer,
		PlayerPhaseBlocks: p.PlayerPhaseBlocks,
		BankerPhaseBlocks: p.BankerPhaseBlocks,
	}
}

func (p ParamsConfig) Params() state.Params {
	return state.Params{
		GapRate:           p.GapRate,
		TreasuryRate:      p.TreasuryRate,
		BonusRate:         p.BonusRate,
		MinStake:          p.MinStake,
		Interval:          p.Interval,
		Buffer:            p.Buffer,
		PlayerPhaseBlocks: p.PlayerPhaseBlocks,
		BankerPhaseBlocks: p.BankerPhaseBlocks,
	}
}

func Default() Config {
	return Config{
		Home: ".hexbet",
		ABCI: ABCIConfig{
			Addr:      "tcp://127.0.0.1:26658",
			Transport: "socket",
		},
		Log: LogConfig{Level: "info"},
		Genesis: GenesisConfig{
			Params: paramsConfig(state.DefaultParams()),
		},
		Operator: OperatorConfig{
			RPC:      "http://127.0.0.1:26657",
			Account:  "operator",
			Schedule: "@every 1s",
			SecretDB: "operator",
		},
	}
}

// Load reads defaults, then the YAML file at path (if it exists), then
// HEXBET_* environment variables, then overrides (keyed like "abci.addr").
func Load(path string, overrides map[string]any) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(def)); err != nil {
		return Config{}, fmt.Errorf("read defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default config to path. Existing files are kept
// unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	cfg := Default()
	cfg.Home = filepath.Dir(path)
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the node-side settings.
func (c Config) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("home is required")
	}
	switch c.ABCI.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("abci.transport must be socket or grpc, got %q", c.ABCI.Transport)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if err := c.Genesis.Params.Params().Validate(); err != nil {
		return fmt.Errorf("genesis.params: %w", err)
	}
	for acct, k := range c.Genesis.PubKeys {
		if _, err := commitment.ParseHex(k, 32); err != nil {
			return fmt.Errorf("genesis.pub_keys.%s: %w", acct, err)
		}
	}
	if _, err := c.Exchange.ParseRate(); err != nil {
		return err
	}
	return nil
}

// ParseRate returns the exchange rate, or nil when the exchange is disabled.
func (e ExchangeConfig) ParseRate() (*decimal.Decimal, error) {
	if strings.TrimSpace(e.Rate) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(e.Rate))
	if err != nil {
		return nil, fmt.Errorf("exchange.rate: %w", err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("exchange.rate must be positive")
	}
	return &d, nil
}

// ValidateOperator checks the settings `hexbetd operator` needs.
func (c Config) ValidateOperator() error {
	if c.Operator.RPC == "" {
		return fmt.Errorf("operator.rpc is required")
	}
	if c.Operator.Account == "" {
		return fmt.Errorf("operator.account is required")
	}
	if _, err := c.Operator.Seed(); err != nil {
		return err
	}
	if c.Operator.Schedule == "" {
		return fmt.Errorf("operator.schedule is required")
	}
	return nil
}

// Seed decodes the operator's Ed25519 key seed.
func (o OperatorConfig) Seed() ([]byte, error) {
	b, err := commitment.ParseHex(o.KeySeed, 32)
	if err != nil {
		return nil, fmt.Errorf("operator.key_seed: %w", err)
	}
	return b, nil
}
