package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultIndexURL        = "https://www.jpx.co.jp/markets/derivatives/settlement-price/index.html"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultSourceTimeout   = 10 * time.Second
	DefaultEncoding        = "shift_jis"
	DefaultSkipRows        = 2
	DefaultFuturePrefix    = "FUT_225M_"
	DefaultIndexName       = "日経225"
	DefaultStrikeIncrement = 250
	DefaultNamespace       = "didactic-eureka"
	DefaultSink            = "pushgateway"
	DefaultEndpoint        = "http://localhost:9091"
	DefaultPublishTimeout  = 10 * time.Second
	DefaultInterval        = 6 * time.Hour
	DefaultTimezone        = "Asia/Tokyo"
	DefaultLogLevel        = "info"

	// SecondMonthLabelFirst looks up second-month IVs under the first month's
	// expiration label, as the legacy job did.
	SecondMonthLabelFirst = "first"
	// SecondMonthLabelSecond looks them up under the second month's own label.
	SecondMonthLabelSecond = "second"
)

// Config is the top-level agent configuration.
// Fields map 1:1 to config/agent.example.yaml.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	Source    SourceConfig    `yaml:"source"`
	Table     TableConfig     `yaml:"table"`
	Extract   ExtractConfig   `yaml:"extract"`
	Publisher PublisherConfig `yaml:"publisher"`
	Schedule  ScheduleConfig  `yaml:"schedule"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// SourceConfig describes where the settlement file is published.
type SourceConfig struct {
	// IndexURL is the page that links to today's settlement CSV.
	IndexURL string `yaml:"index_url"`

	// UserAgent is sent on every request; the exchange rejects bare clients.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds each individual GET.
	Timeout time.Duration `yaml:"timeout"`

	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS dial options for the source host.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this behind an intercepting proxy in development.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// TableConfig describes the layout of the downloaded file.
type TableConfig struct {
	// Encoding is a WHATWG encoding label (shift_jis, euc-jp, utf-8, ...).
	Encoding string `yaml:"encoding"`

	// SkipRows is the number of metadata lines before the header line.
	SkipRows int `yaml:"skip_rows"`
}

// ExtractConfig holds the row-selection rules.
type ExtractConfig struct {
	// FuturePrefix selects the reference rows (mini futures) by instrument name.
	FuturePrefix string `yaml:"future_prefix"`

	// IndexName is the underlying-asset name of the index options.
	IndexName string `yaml:"index_name"`

	// StrikeIncrement is the ATM rounding step.
	StrikeIncrement int64 `yaml:"strike_increment"`

	// SecondMonthLabel is one of: first | second. See SecondMonthLabelFirst.
	SecondMonthLabel string `yaml:"second_month_label"`
}

// PublisherConfig selects and configures the metrics sink.
type PublisherConfig struct {
	// Namespace groups every published metric.
	Namespace string `yaml:"namespace"`

	// Sink is one of: pushgateway | otlp | log.
	Sink string `yaml:"sink"`

	// Endpoint is the sink base URL (pushgateway) or OTLP/HTTP metrics URL (otlp).
	Endpoint string `yaml:"endpoint"`

	Timeout time.Duration `yaml:"timeout"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig configures the API key sent to the sink.
type AuthConfig struct {
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Headers returns the auth header map to attach to sink requests, or nil
// when no key is configured.
func (a AuthConfig) Headers() map[string]string {
	key := a.Key()
	if a.Header == "" || key == "" {
		return nil
	}
	return map[string]string{a.Header: key}
}

// ScheduleConfig controls the serve loop.
type ScheduleConfig struct {
	// Interval between pipeline runs.
	Interval time.Duration `yaml:"interval"`

	// WeekdaysOnly skips ticks that fall on Saturday or Sunday in Timezone.
	WeekdaysOnly bool `yaml:"weekdays_only"`

	// Timezone is an IANA zone name used to evaluate WeekdaysOnly.
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone. validate guarantees it loads.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. It is what
// the agent runs with when no config file is given.
func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			Source: SourceConfig{
				IndexURL:  DefaultIndexURL,
				UserAgent: DefaultUserAgent,
				Timeout:   DefaultSourceTimeout,
			},
			Table: TableConfig{
				Encoding: DefaultEncoding,
				SkipRows: DefaultSkipRows,
			},
			Extract: ExtractConfig{
				FuturePrefix:     DefaultFuturePrefix,
				IndexName:        DefaultIndexName,
				StrikeIncrement:  DefaultStrikeIncrement,
				SecondMonthLabel: SecondMonthLabelFirst,
			},
			Publisher: PublisherConfig{
				Namespace: DefaultNamespace,
				Sink:      DefaultSink,
				Endpoint:  DefaultEndpoint,
				Timeout:   DefaultPublishTimeout,
			},
			Schedule: ScheduleConfig{
				Interval:     DefaultInterval,
				WeekdaysOnly: true,
				Timezone:     DefaultTimezone,
			},
			LogLevel: DefaultLogLevel,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.Source.IndexURL == "" {
		return fmt.Errorf("agent.source.index_url is required")
	}
	if !strings.HasPrefix(a.Source.IndexURL, "http://") && !strings.HasPrefix(a.Source.IndexURL, "https://") {
		return fmt.Errorf("agent.source.index_url %q must be an absolute http(s) URL", a.Source.IndexURL)
	}
	if a.Source.Timeout <= 0 {
		return fmt.Errorf("agent.source.timeout must be positive")
	}
	if a.Table.Encoding == "" {
		return fmt.Errorf("agent.table.encoding is required")
	}
	if _, err := htmlindex.Get(a.Table.Encoding); err != nil {
		return fmt.Errorf("agent.table.encoding %q: %w", a.Table.Encoding, err)
	}
	if a.Table.SkipRows < 0 {
		return fmt.Errorf("agent.table.skip_rows must not be negative")
	}
	if a.Extract.FuturePrefix == "" {
		return fmt.Errorf("agent.extract.future_prefix is required")
	}
	if a.Extract.IndexName == "" {
		return fmt.Errorf("agent.extract.index_name is required")
	}
	if a.Extract.StrikeIncrement <= 0 {
		return fmt.Errorf("agent.extract.strike_increment must be positive")
	}
	switch a.Extract.SecondMonthLabel {
	case SecondMonthLabelFirst, SecondMonthLabelSecond:
	default:
		return fmt.Errorf("agent.extract.second_month_label %q unknown: want first|second", a.Extract.SecondMonthLabel)
	}
	if a.Publisher.Namespace == "" {
		return fmt.Errorf("agent.publisher.namespace is required")
	}
	switch a.Publisher.Sink {
	case "pushgateway", "otlp":
		if a.Publisher.Endpoint == "" {
			return fmt.Errorf("agent.publisher.endpoint is required for sink %q", a.Publisher.Sink)
		}
	case "log":
	default:
		return fmt.Errorf("agent.publisher.sink %q unknown: want pushgateway|otlp|log", a.Publisher.Sink)
	}
	if a.Publisher.Timeout <= 0 {
		return fmt.Errorf("agent.publisher.timeout must be positive")
	}
	if a.Schedule.Interval <= 0 {
		return fmt.Errorf("agent.schedule.interval must be positive")
	}
	if _, err := time.LoadLocation(a.Schedule.Timezone); err != nil {
		return fmt.Errorf("agent.schedule.timezone %q: %w", a.Schedule.Timezone, err)
	}
	if _, err := ParseLevel(a.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("agent.log_level %q unknown: want debug|info|warn|error", s)
	}
	return lvl, nil
}
