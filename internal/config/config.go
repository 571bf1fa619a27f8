package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/photobooth/internal/constants"
)

type Config struct {
	Web     WebConfig
	Collage CollageConfig
	Loader  LoaderConfig
	Booth   BoothConfig
	Log     LogConfig
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

// Addr returns the host:port listen address.
func (c *WebConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

type CollageConfig struct {
	Format  string // png, jpeg or webp
	Quality int    // fixed encoder quality for lossy formats
}

type LoaderConfig struct {
	Timeout  time.Duration // bound on fetching http(s) sources
	MaxBytes int64         // largest accepted encoded payload
}

type BoothConfig struct {
	MaxPhotos int // default capture limit for new sessions
}

type LogConfig struct {
	Level       string
	Development bool
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable, falling back to defaultVal when empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean. Invalid values yield defaultVal.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	format := strings.ToLower(envString("COLLAGE_FORMAT", constants.DefaultCollageFormat))
	if !slices.Contains([]string{"png", "jpeg", "webp"}, format) {
		format = constants.DefaultCollageFormat
	}

	quality := envInt("COLLAGE_QUALITY", constants.DefaultQuality)
	if quality > 100 {
		quality = constants.DefaultQuality
	}

	maxPhotos := envInt("BOOTH_MAX_PHOTOS", constants.DefaultMaxPhotos)
	if !slices.Contains(constants.AllowedMaxPhotos, maxPhotos) {
		maxPhotos = constants.DefaultMaxPhotos
	}

	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Collage: CollageConfig{
			Format:  format,
			Quality: quality,
		},
		Loader: LoaderConfig{
			Timeout:  time.Duration(envInt("LOADER_TIMEOUT_SECONDS", constants.DefaultLoaderTimeoutSeconds)) * time.Second,
			MaxBytes: int64(envInt("LOADER_MAX_BYTES", constants.DefaultLoaderMaxBytes)),
		},
		Booth: BoothConfig{
			MaxPhotos: maxPhotos,
		},
		Log: LogConfig{
			Level:       envString("LOG_LEVEL", "info"),
			Development: envBool("LOG_DEVELOPMENT", false),
		},
	}
}
