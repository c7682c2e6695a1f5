package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DB     DBConfig
	Redis  RedisConfig
	Server ServerConfig
	JWT    JWTConfig
	CORS   CORSConfig
	Logger LoggerConfig
}

type DBConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type RedisConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string `yaml:"url"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type JWTConfig struct {
	// Secret is base64 encoded; the raw bytes are the HMAC key.
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../configs")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		DB: DBConfig{
			URL:      viper.GetString("db.url"),
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
		},
		Redis: RedisConfig{
			URL:      viper.GetString("redis.url"),
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			AccessTTL:  viper.GetDuration("jwt.access_ttl_ms") * time.Millisecond,
			RefreshTTL: viper.GetDuration("jwt.refresh_ttl_ms") * time.Millisecond,
		},
		CORS: CORSConfig{
			AllowedOrigin: viper.GetString("cors.allowed_origin"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
	}

	// Override with environment variables if set
	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		config.DB.URL = dbURL
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if kvURL := os.Getenv("KV_URL"); kvURL != "" {
		config.Redis.URL = kvURL
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWT.Secret = secret
	}
	if ttl := os.Getenv("JWT_ACCESS_TTL_MS"); ttl != "" {
		config.JWT.AccessTTL = viper.GetDuration("JWT_ACCESS_TTL_MS") * time.Millisecond
	}
	if ttl := os.Getenv("JWT_REFRESH_TTL_MS"); ttl != "" {
		config.JWT.RefreshTTL = viper.GetDuration("JWT_REFRESH_TTL_MS") * time.Millisecond
	}
	if origin := os.Getenv("CORS_ALLOWED_ORIGIN"); origin != "" {
		config.CORS.AllowedOrigin = origin
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = viper.GetInt("SERVER_PORT")
	}

	if config.JWT.AccessTTL <= 0 {
		config.JWT.AccessTTL = 15 * time.Minute
	}
	if config.JWT.RefreshTTL <= 0 {
		config.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}

	return config, nil
}

// GetDSN builds the Oracle connection string.
func (c *Config) GetDSN() string {
	if c.DB.URL != "" {
		return c.DB.URL
	}
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
