package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMongoURI         = "mongodb://localhost:27017/portfolio"
	defaultMongoDatabase    = "portfolio"
	defaultSelectionTimeout = 5000
	defaultAppPort          = "8080"
	defaultAppEnv           = "development"
	defaultAdminEmail       = "admin@example.com"
	defaultAdminPassword    = "admin123_change_this"
	defaultAdminName        = "Admin User"
	defaultStaticRoot       = "."
	defaultIndexFile        = "index.html"
	defaultJWTSecret        = "change-me-in-production"
	defaultRateLimit        = 200
)

// Files read by Load, relative to the working directory.
const (
	FileJSON = "config/app.json"
	FileEnv  = ".env"
)

// ErrDefaultSecret is returned by Validate when a production config still
// carries the built-in JWT secret.
var ErrDefaultSecret = errors.New("config: JWT_SECRET must be set in production")

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Config is an immutable snapshot of every setting the server reads.
// Build one with Current() at startup and pass it down explicitly.
type Config struct {
	Env string

	Port       string
	StaticRoot string
	IndexFile  string

	MongoURI              string
	MongoDatabase         string
	MongoSelectionTimeout time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	CORSOrigins []string
	RateLimit   int

	RedisAddr     string
	RedisPassword string

	JWTSecret  string
	LogToMongo bool
}

// Production reports whether error details must be hidden from clients.
func (c Config) Production() bool {
	return isProduction(c.Env)
}

// Validate rejects settings that must not reach a production listener.
func (c Config) Validate() error {
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return ErrDefaultSecret
	}
	return nil
}

// Load reads config/app.json and .env once. Missing files are not an error.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles(FileJSON, FileEnv)
	})
	return loadErr
}

// LoadFrom replaces the file-backed layer with the given files. Process
// environment variables still take precedence over anything loaded here.
func LoadFrom(configPath, envPath string) error {
	loadOnce.Do(func() {})
	return loadFromFiles(configPath, envPath)
}

// Current returns a snapshot of the merged configuration.
func Current() Config {
	_ = Load()

	return Config{
		Env:                   AppEnv(),
		Port:                  AppPort(),
		StaticRoot:            get("STATIC_ROOT", defaultStaticRoot),
		IndexFile:             get("INDEX_FILE", defaultIndexFile),
		MongoURI:              MongoURI(),
		MongoDatabase:         get("MONGO_DATABASE", ""),
		MongoSelectionTimeout: time.Duration(getInt("MONGO_SERVER_SELECTION_TIMEOUT_MS", defaultSelectionTimeout)) * time.Millisecond,
		AdminName:             AdminName(),
		AdminEmail:            get("ADMIN_EMAIL", defaultAdminEmail),
		AdminPassword:         get("ADMIN_PASSWORD", defaultAdminPassword),
		CORSOrigins:           splitList(get("CORS_ORIGINS", "*")),
		RateLimit:             getInt("RATE_LIMIT", defaultRateLimit),
		RedisAddr:             get("REDIS_ADDR", ""),
		RedisPassword:         get("REDIS_PASSWORD", ""),
		JWTSecret:             JWTSecret(),
		LogToMongo:            getBool("LOG_TO_MONGO", false),
	}
}

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

// MongoDatabaseFallback is used when neither MONGO_DATABASE nor the URI path
// names a database.
func MongoDatabaseFallback() string { return defaultMongoDatabase }

func AppPort() string {
	_ = Load()
	return get("PORT", get("APP_PORT", defaultAppPort))
}

func AppEnv() string {
	_ = Load()
	return strings.ToLower(get("APP_ENV", get("NODE_ENV", defaultAppEnv)))
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// UsingDefaultJWTSecret reports whether tokens are signed with the built-in key.
func UsingDefaultJWTSecret() bool {
	return JWTSecret() == defaultJWTSecret
}

// AdminName is ADMIN_NAME when set, otherwise the local part of ADMIN_EMAIL,
// otherwise "Admin User".
func AdminName() string {
	_ = Load()
	if name := get("ADMIN_NAME", ""); name != "" {
		return name
	}
	if email := get("ADMIN_EMAIL", ""); email != "" {
		if local, _, _ := strings.Cut(email, "@"); local != "" {
			return local
		}
	}
	return defaultAdminName
}

func defaultValues() map[string]string {
	return map[string]string{
		"MONGO_URI":   defaultMongoURI,
		"STATIC_ROOT": defaultStaticRoot,
		"INDEX_FILE":  defaultIndexFile,
		"JWT_SECRET":  defaultJWTSecret,
	}
}

func isProduction(env string) bool {
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	}
	return false
}

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// get resolves key from the process environment first, then the file layer.
func get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(get(key, ""))
	if err != nil {
		return fallback
	}
	return b
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

// Get reads any config key by name with an optional fallback.
// Keys from the environment, .env and app.json are all visible.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
