package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tableside/tableside/internal/items"
)

// Server configures cmd/server.
type Server struct {
	Port           string
	DatabaseURL    string // in-memory store when empty
	JWTSecret      string
	CSRFToken      string
	RedisAddr      string // menu cache disabled when empty
	MenuCacheTTL   time.Duration
	OrderRateLimit float64 // POST /order requests per second per client
	OrderBurst     int
	AllowedOrigins []string
	LogLevel       string

	// Table QR codes point at PublicURL/table/{id}. Empty derives the base
	// from the incoming request.
	PublicURL string
	QRTables  int // tables covered by the printable QR sheets

	// Seeded into the in-memory store when DatabaseURL is empty.
	AdminUser     string
	AdminPassword string
}

// LoadServer reads server settings from the environment. A random CSRF
// token is generated when none is configured.
func LoadServer() *Server {
	csrf := getEnv("CSRF_TOKEN", "")
	if csrf == "" {
		csrf = uuid.NewString()
	}
	return &Server{
		Port:           getEnv("PORT", "8081"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		CSRFToken:      csrf,
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		MenuCacheTTL:   getDuration("MENU_CACHE_TTL", 5*time.Minute),
		OrderRateLimit: getFloat("ORDER_RATE_LIMIT", 1),
		OrderBurst:     getInt("ORDER_RATE_BURST", 5),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		QRTables:       getInt("QR_TABLES", 1000),
		AdminUser:      getEnv("ADMIN_USER", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
	}
}

// Client configures cmd/tableside.
type Client struct {
	BaseURL       string
	CSRFToken     string
	PollInterval  time.Duration
	Timeout       time.Duration // zero leaves the transport default
	AdminUser     string
	AdminPassword string
	LogLevel      string

	TableItemsMode   items.Mode
	AdminItemsMode   items.Mode
	ArchiveItemsMode items.Mode
}

// LoadClient reads client settings from the environment. Unknown item
// modes fall back to each view's default.
func LoadClient() *Client {
	return &Client{
		BaseURL:          strings.TrimRight(getEnv("TABLESIDE_URL", "http://localhost:8081"), "/"),
		CSRFToken:        getEnv("TABLESIDE_CSRF_TOKEN", ""),
		PollInterval:     getDuration("TABLESIDE_POLL_INTERVAL", 10*time.Second),
		Timeout:          getDuration("TABLESIDE_TIMEOUT", 0),
		AdminUser:        getEnv("TABLESIDE_ADMIN_USER", "admin"),
		AdminPassword:    getEnv("TABLESIDE_ADMIN_PASSWORD", ""),
		LogLevel:         getEnv("TABLESIDE_LOG_LEVEL", "warn"),
		TableItemsMode:   getMode("TABLESIDE_TABLE_ITEMS_MODE", items.Lenient),
		AdminItemsMode:   getMode("TABLESIDE_ADMIN_ITEMS_MODE", items.Strict),
		ArchiveItemsMode: getMode("TABLESIDE_ARCHIVE_ITEMS_MODE", items.Lenient),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getMode(key string, fallback items.Mode) items.Mode {
	m, err := items.ParseMode(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return m
}
