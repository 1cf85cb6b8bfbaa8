package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Orders        OrdersConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEARMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"NEARMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEARMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEARMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"NEARMARKET_DB_DSN"`

	Host     string `envconfig:"NEARMARKET_DB_HOST"`
	Port     int    `envconfig:"NEARMARKET_DB_PORT" default:"5432"`
	User     string `envconfig:"NEARMARKET_DB_USER"`
	Password string `envconfig:"NEARMARKET_DB_PASSWORD"`
	Name     string `envconfig:"NEARMARKET_DB_NAME"`
	SSLMode  string `envconfig:"NEARMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEARMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEARMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEARMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEARMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEARMARKET_REDIS_URL"`
	Address      string        `envconfig:"NEARMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"NEARMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEARMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEARMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEARMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEARMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEARMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEARMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret               string `envconfig:"NEARMARKET_JWT_SECRET" required:"true"`
	Issuer               string `envconfig:"NEARMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes    int    `envconfig:"NEARMARKET_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLHours int    `envconfig:"NEARMARKET_REFRESH_TOKEN_TTL_HOURS" default:"168"`
}

// RefreshTokenTTL returns the refresh token lifetime configured in hours.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLHours <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NEARMARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NEARMARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NEARMARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NEARMARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NEARMARKET_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NEARMARKET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NEARMARKET_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NEARMARKET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NEARMARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NEARMARKET_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NEARMARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type OrdersConfig struct {
	DeliveryFee string `envconfig:"NEARMARKET_ORDERS_DELIVERY_FEE" default:"5.00"`
	MaxAttempts int    `envconfig:"NEARMARKET_ORDERS_TX_MAX_ATTEMPTS" default:"3"`
}

// DeliveryFeeAmount parses the configured flat delivery fee.
func (o OrdersConfig) DeliveryFeeAmount() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(o.DeliveryFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing delivery fee %q: %w", o.DeliveryFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("delivery fee must not be negative")
	}
	return fee, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEARMARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
