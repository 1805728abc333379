package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Matching     MatchingConfig
	Optimizer    OptimizerConfig
	Plans        PlansConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Plans.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROCUREMATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCUREMATCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROCUREMATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCUREMATCH_LOG_WARN_STACK" default:"false"`
	LogFile      string `envconfig:"PROCUREMATCH_LOG_FILE"`
	LogMaxSizeMB int    `envconfig:"PROCUREMATCH_LOG_MAX_SIZE_MB" default:"100"`
	// CORSOrigins is a comma separated allow-list.
	CORSOrigins []string `envconfig:"PROCUREMATCH_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROCUREMATCH_DB_DSN"`
	Driver string `envconfig:"PROCUREMATCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROCUREMATCH_DB_HOST"`
	LegacyPort     int    `envconfig:"PROCUREMATCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROCUREMATCH_DB_USER"`
	LegacyPassword string `envconfig:"PROCUREMATCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROCUREMATCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROCUREMATCH_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"PROCUREMATCH_DB_SQLITE_PATH" default:"procurematch.db"`

	MaxOpenConns    int           `envconfig:"PROCUREMATCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCUREMATCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCUREMATCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCUREMATCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery logs statements slower than this at warn; 0 disables.
	SlowQuery time.Duration `envconfig:"PROCUREMATCH_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCUREMATCH_REDIS_URL"`
	Address      string        `envconfig:"PROCUREMATCH_REDIS_ADDR"`
	Password     string        `envconfig:"PROCUREMATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROCUREMATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROCUREMATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCUREMATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCUREMATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCUREMATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCUREMATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether enough settings exist to dial Redis.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROCUREMATCH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROCUREMATCH_AUTO_MIGRATE" default:"false"`
}

// MatchingConfig tunes the match pipeline. Zero values fall back to package defaults.
type MatchingConfig struct {
	ClassifierThreshold float64 `envconfig:"PROCUREMATCH_MATCH_CLASSIFIER_THRESHOLD" default:"0.5"`
	CuratedWeight       int     `envconfig:"PROCUREMATCH_MATCH_CURATED_WEIGHT" default:"3"`
	TopK                int     `envconfig:"PROCUREMATCH_MATCH_TOP_K" default:"5"`
	TopBand             float64 `envconfig:"PROCUREMATCH_MATCH_TOP_BAND" default:"10"`
	DefaultMode         string  `envconfig:"PROCUREMATCH_MATCH_DEFAULT_MODE" default:"strict"`
	Alternatives        int     `envconfig:"PROCUREMATCH_MATCH_ALTERNATIVES" default:"5"`
}

type OptimizerConfig struct {
	TopUpRatio             float64 `envconfig:"PROCUREMATCH_OPTIMIZER_TOPUP_RATIO" default:"0.10"`
	MaxAttemptsPerSupplier int     `envconfig:"PROCUREMATCH_OPTIMIZER_MAX_ATTEMPTS_PER_SUPPLIER" default:"20"`
	MaxAttemptsPerLine     int     `envconfig:"PROCUREMATCH_OPTIMIZER_MAX_ATTEMPTS_PER_LINE" default:"3"`
}

type PlansConfig struct {
	TTL   time.Duration `envconfig:"PROCUREMATCH_PLAN_TTL" default:"60m"`
	Store string        `envconfig:"PROCUREMATCH_PLAN_STORE" default:"db"`
	// RedisGrace keeps expired payloads around long enough to report PLAN_EXPIRED.
	RedisGrace time.Duration `envconfig:"PROCUREMATCH_PLAN_REDIS_GRACE" default:"60m"`
}

const (
	PlanStoreDB    = "db"
	PlanStoreRedis = "redis"
)

func (p PlansConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Store)) {
	case PlanStoreDB, PlanStoreRedis:
	default:
		return fmt.Errorf("unsupported plan store %q", p.Store)
	}
	if p.TTL <= 0 {
		return fmt.Errorf("plan ttl must be positive")
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PROCUREMATCH_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"PROCUREMATCH_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
