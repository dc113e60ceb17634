package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyBytes      int64
	MaxInflight       int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

func (a App) IsProd() bool { return strings.EqualFold(a.Env, "prod") || strings.EqualFold(a.Env, "production") }

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type Cookie struct {
	Name     string
	Secure   bool
	SameSite string
	Domain   string
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	// Transport is "cookie" or "bearer".
	Transport string
	Cookie    Cookie
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	// Driver is one of mongo, postgres, mysql, memory.
	Driver             string
	DSN                string
	Database           string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type Sentry struct {
	DSN string
	Env string
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	CORS   CORS  `mapstructure:"cors"`
	Sentry Sentry
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "leadcrm")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readTimeoutSec", 15)
	v.SetDefault("app.http.writeTimeoutSec", 15)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 10)
	v.SetDefault("app.http.maxBodyBytes", 1<<20)
	v.SetDefault("app.http.maxInflight", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxSizeMB", 100)
	v.SetDefault("log.rotate.maxBackups", 7)
	v.SetDefault("log.rotate.maxAgeDays", 30)
	v.SetDefault("log.rotate.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "leadcrm")
	v.SetDefault("jwt.accessTokenTTLMin", 30*24*60)
	v.SetDefault("jwt.transport", "cookie")
	v.SetDefault("jwt.cookie.name", "access_token")
	v.SetDefault("jwt.cookie.secure", false)
	v.SetDefault("jwt.cookie.sameSite", "lax")
	v.SetDefault("jwt.cookie.domain", "")

	v.SetDefault("db.driver", "mongo")
	v.SetDefault("db.dsn", "mongodb://localhost:27017")
	v.SetDefault("db.database", "leadcrm")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cors.allowOrigins", []string{"http://localhost:5173"})

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.env", "")
}

// Load reads the YAML file at path (CONFIG_PATH, then the local default when
// empty). A missing default file is not an error; every key has a default and
// may be overridden by APP_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "mongo", "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	switch c.JWT.Transport {
	case "cookie", "bearer":
	default:
		return fmt.Errorf("config: jwt.transport must be cookie or bearer, got %q", c.JWT.Transport)
	}
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret is required (APP_JWT_SECRET)")
	}
	return nil
}
