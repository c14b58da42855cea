package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultConfigName = "config"

// Configはアプリ全体の設定
type Config struct {
	Env struct {
		Env         string `yaml:"env"`
		ServiceName string `yaml:"serviceName"`
		Debug       bool   `yaml:"debug"`
		Log         Log    `yaml:"log"`
	} `yaml:"env"`

	HTTP     HTTP     `yaml:"http"`
	Postgres Postgres `yaml:"postgres"`
	JWT      JWT      `yaml:"jwt"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Cleanup  Cleanup  `yaml:"cleanup"`
	Order    Order    `yaml:"order"`
}

type Log struct {
	Pretty bool   `yaml:"pretty"`
	Level  string `yaml:"level"`
}

type HTTP struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxPageSize    int           `yaml:"maxPageSize"`
	RateLimit      struct {
		RPS       float64       `yaml:"rps"`
		Burst     int           `yaml:"burst"`
		ExpiresIn time.Duration `yaml:"expiresIn"`
	} `yaml:"rateLimit"`
}

// DSNが空ならhost等から組み立てる
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	// カンマ区切りのDSN
	Replicas string `yaml:"replicas"`
}

type JWT struct {
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"accessTTL"`
	BcryptCost int           `yaml:"bcryptCost"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StatsTTL time.Duration `yaml:"statsTTL"`
}

type Kafka struct {
	Enabled bool `yaml:"enabled"`
	// カンマ区切り
	Brokers    string `yaml:"brokers"`
	OrderTopic string `yaml:"orderTopic"`
}

// 注文後のカート掃除のリトライ設定
type Cleanup struct {
	Interval    time.Duration `yaml:"interval"`
	BatchSize   int           `yaml:"batchSize"`
	MaxAttempts int           `yaml:"maxAttempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

type Order struct {
	MaxQuantity     int `yaml:"maxQuantity"`
	MinDeliveryDays int `yaml:"minDeliveryDays"`
	MaxDeliveryDays int `yaml:"maxDeliveryDays"`
}

// PostgresのDSN
func (p Postgres) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode,
	)
}

func (p Postgres) ReplicaDSNs() []string {
	return splitList(p.Replicas)
}

func (k Kafka) BrokerList() []string {
	return splitList(k.Brokers)
}

// Loadは.env → config.yaml → 環境変数の順で読む
func Load() (*Config, error) {
	// .envは無くてもよい
	_ = godotenv.Load()

	cfg, err := LoadWithEnv[Config](defaultConfigName, "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	//必須チェック
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 {
		return errors.New("http.port is required")
	}
	if c.HTTP.MaxPageSize <= 0 {
		return errors.New("http.maxPageSize must be > 0")
	}
	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.DB == "") {
		return errors.New("postgres.dsn or postgres.host/db is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.BrokerList()) == 0 || c.Kafka.OrderTopic == "") {
		return errors.New("kafka.brokers/orderTopic are required when kafka is enabled")
	}
	if c.Order.MaxQuantity <= 0 {
		return errors.New("order.maxQuantity must be > 0")
	}
	if c.Order.MinDeliveryDays <= 0 || c.Order.MaxDeliveryDays < c.Order.MinDeliveryDays {
		return errors.New("order delivery days range is invalid")
	}
	return nil
}

// LoadWithEnvは<name>.yamlを探して読み、環境変数で上書きする
func LoadWithEnv[T any](name string, configPath ...string) (*T, error) {
	cfg := new(T)
	k := koanf.New(".")

	searchPaths := []string{"."}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			break
		}
	}
	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", name)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", name)
	}

	existing := k.Raw()

	// POSTGRES_SSLMODE -> postgres.sslMode
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, v string) (string, any) {
			return canonicalizeEnvKey(key, existing), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "yaml",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "yaml",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", name)
	}

	return cfg, nil
}

// 環境変数名をyamlのキーに寄せる。yamlに無いキーは小文字のまま
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for i := 0; i < len(segments); i++ {
		if segments[i] == "" {
			continue
		}

		// ACCESS_TTL -> accessTTL のように複数セグメントで1キーになる場合
		matched, next, used := matchSegments(current, segments[i:])
		if used == 0 {
			canonical = append(canonical, segments[i])
			current = nil
			continue
		}
		canonical = append(canonical, matched)
		current = next
		i += used - 1
	}

	return strings.Join(canonical, ".")
}

// 長い連結から優先して既存キーと照合する
func matchSegments(current map[string]any, segments []string) (string, map[string]any, int) {
	if len(current) == 0 {
		return "", nil, 0
	}
	for n := len(segments); n > 0; n-- {
		needle := normalizeToken(strings.Join(segments[:n], ""))
		for key, value := range current {
			if normalizeToken(key) != needle {
				continue
			}
			child, _ := value.(map[string]any)
			return key, child, n
		}
	}
	return "", nil, 0
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
