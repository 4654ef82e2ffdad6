package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/catalogsync/pkg/errors"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Password  PasswordConfig
	Crawler   CrawlerConfig
	Reconcile ReconcileConfig
	Worker    WorkerConfig
}

// Load reads the process environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "parsing config")
	}
	if cfg.Reconcile.StoreBackend() == StoreBackendSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLocal reads the configuration for commands that never open a store,
// so no DSN or Mongo URI is required.
func LoadLocal() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "parsing config")
	}
	if cfg.Crawler.PageSize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "crawler page size must be positive")
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Reconcile.StoreBackend() {
	case StoreBackendSQL:
	case StoreBackendMongo:
		if c.Mongo.URI == "" {
			return pkgerrors.New(pkgerrors.CodeConfig, fmt.Sprintf("%s is required when %s=mongo", EnvMongoURI, EnvStoreBackend))
		}
	default:
		return pkgerrors.New(pkgerrors.CodeConfig, fmt.Sprintf("unsupported store backend %q", c.Reconcile.Store))
	}
	if _, err := c.Reconcile.FallbackPattern(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfig, err, "invalid fallback category pattern")
	}
	if c.Crawler.PageSize <= 0 {
		return pkgerrors.New(pkgerrors.CodeConfig, "crawler page size must be positive")
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"CATALOGSYNC_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"CATALOGSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CATALOGSYNC_LOG_WARN_STACK" default:"false"`
}

// IsDev reports whether the dev environment is selected.
func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type DBConfig struct {
	DSN    string `envconfig:"CATALOGSYNC_DB_DSN"`
	Driver string `envconfig:"CATALOGSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CATALOGSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"CATALOGSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CATALOGSYNC_DB_USER"`
	LegacyPassword string `envconfig:"CATALOGSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"CATALOGSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"CATALOGSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CATALOGSYNC_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CATALOGSYNC_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CATALOGSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CATALOGSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"CATALOGSYNC_AUTO_MIGRATE" default:"false"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type MongoConfig struct {
	URI            string        `envconfig:"CATALOGSYNC_MONGO_URI"`
	Database       string        `envconfig:"CATALOGSYNC_MONGO_DB" default:"storefront"`
	ConnectTimeout time.Duration `envconfig:"CATALOGSYNC_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CATALOGSYNC_REDIS_URL"`
	Address      string        `envconfig:"CATALOGSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"CATALOGSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"CATALOGSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CATALOGSYNC_REDIS_POOL_SIZE" default:"5"`
	MinIdleConns int           `envconfig:"CATALOGSYNC_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"CATALOGSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CATALOGSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CATALOGSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CATALOGSYNC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CATALOGSYNC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CATALOGSYNC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CATALOGSYNC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CATALOGSYNC_ARGON_KEY_LEN" default:"32"`

	// FallbackCredential is hashed for imported users that carry neither a
	// hash nor a plain password.
	FallbackCredential string `envconfig:"CATALOGSYNC_FALLBACK_CREDENTIAL" default:""`
}

type CrawlerConfig struct {
	BaseURL   string        `envconfig:"CATALOGSYNC_CRAWLER_BASE_URL" default:"https://api-crownx.winmart.vn"`
	PageSize  int           `envconfig:"CATALOGSYNC_CRAWLER_PAGE_SIZE" default:"100"`
	MaxPages  int           `envconfig:"CATALOGSYNC_CRAWLER_MAX_PAGES" default:"0"`
	Timeout   time.Duration `envconfig:"CATALOGSYNC_CRAWLER_TIMEOUT" default:"30s"`
	UserAgent string        `envconfig:"CATALOGSYNC_CRAWLER_USER_AGENT" default:"catalogsync/1.0"`
}

type ReconcileConfig struct {
	DryRun                  bool   `envconfig:"CATALOGSYNC_DRY_RUN" default:"false"`
	Store                   string `envconfig:"CATALOGSYNC_STORE_BACKEND" default:"sql"`
	FallbackCategoryPattern string `envconfig:"CATALOGSYNC_FALLBACK_CATEGORY_PATTERN" default:"thuc-uong"`
	Parallel                bool   `envconfig:"CATALOGSYNC_RECONCILE_PARALLEL" default:"false"`
}

// StoreBackend returns the normalized store backend name.
func (r ReconcileConfig) StoreBackend() string {
	backend := strings.ToLower(strings.TrimSpace(r.Store))
	if backend == "" {
		return StoreBackendSQL
	}
	return backend
}

// FallbackPattern compiles the default category slug pattern case-insensitively.
func (r ReconcileConfig) FallbackPattern() (*regexp.Regexp, error) {
	pattern := strings.TrimSpace(r.FallbackCategoryPattern)
	if pattern == "" {
		pattern = DefaultFallbackCategoryPattern
	}
	return regexp.Compile("(?i)" + pattern)
}

type WorkerConfig struct {
	Interval    time.Duration `envconfig:"CATALOGSYNC_WORKER_INTERVAL" default:"24h"`
	LockKey     string        `envconfig:"CATALOGSYNC_WORKER_LOCK_KEY" default:"catalog-sync"`
	LockTTL     time.Duration `envconfig:"CATALOGSYNC_WORKER_LOCK_TTL" default:"2h"`
	DataDir     string        `envconfig:"CATALOGSYNC_WORKER_DATA_DIR" default:"data"`
	MetricsAddr string        `envconfig:"CATALOGSYNC_WORKER_METRICS_ADDR" default:":9090"`
	RulesFile   string        `envconfig:"CATALOGSYNC_RULES_FILE"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
		return pkgerrors.New(pkgerrors.CodeConfig, fmt.Sprintf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", ")))
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
