package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultPath = "./config/config.yaml"

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p Postgres) ConnStr() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

func (p Postgres) ReplicationConnStr() string {
	return p.ConnStr() + " replication=database"
}

type Nats struct {
	Host               string `mapstructure:"host"`
	Port               string `mapstructure:"port"`
	Stream             string `mapstructure:"stream"`
	RestaurantsSubject string `mapstructure:"restaurantsSubject"`
}

func (n Nats) ConnStr() string {
	return fmt.Sprintf("nats://%s:%s", n.Host, n.Port)
}

type Replication struct {
	Name string `mapstructure:"name"`
	Slot string `mapstructure:"slot"`
}

// LLM selects the hosted chat/embedding provider. Provider is "openai" or "ollama".
type LLM struct {
	Provider       string  `mapstructure:"provider"`
	Host           string  `mapstructure:"host"`
	Port           string  `mapstructure:"port"`
	Token          string  `mapstructure:"token"`
	BaseURL        string  `mapstructure:"baseURL"`
	EmbeddingModel string  `mapstructure:"embeddingModel"`
	ChatModel      string  `mapstructure:"chatModel"`
	Temperature    float64 `mapstructure:"temperature"`
}

func (l *LLM) Address() string {
	return fmt.Sprintf("http://%s:%s", l.Host, l.Port)
}

type Server struct {
	Port          int    `mapstructure:"port"`
	Host          string `mapstructure:"host"`
	PublicBaseURL string `mapstructure:"publicBaseURL"`
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PublicBase returns the configured public base URL without a trailing slash.
func (s *Server) PublicBase() string {
	return strings.TrimRight(s.PublicBaseURL, "/")
}

type Embedder struct {
	Workers      int `mapstructure:"workers"`
	QueueSize    int `mapstructure:"queueSize"`
	ChunkSize    int `mapstructure:"chunkSize"`
	ChunkOverlap int `mapstructure:"chunkOverlap"`
	BatchSize    int `mapstructure:"batchSize"`
}

type Line struct {
	ChannelSecret string `mapstructure:"channelSecret"`
	ChannelToken  string `mapstructure:"channelToken"`
}

type Google struct {
	APIKey    string `mapstructure:"apiKey"`
	RateLimit int    `mapstructure:"rateLimit"`
}

type Seed struct {
	Name string  `mapstructure:"name" json:"name"`
	Lat  float64 `mapstructure:"lat" json:"lat"`
	Lng  float64 `mapstructure:"lng" json:"lng"`
}

type Scraper struct {
	Radius     uint   `mapstructure:"radius"`
	MaxPages   int    `mapstructure:"maxPages"`
	MaxTotal   int    `mapstructure:"maxTotal"`
	PlaceType  string `mapstructure:"placeType"`
	Keyword    string `mapstructure:"keyword"`
	Language   string `mapstructure:"language"`
	OutputFile string `mapstructure:"outputFile"`
	Seeds      []Seed `mapstructure:"seeds"`

	ArticleRateLimit float64 `mapstructure:"articleRateLimit"`
}

type Redis struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttlSeconds"`
}

type ChatLog struct {
	Path string `mapstructure:"path"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Postgres    Postgres    `mapstructure:"postgres"`
	Nats        Nats        `mapstructure:"nats"`
	LLM         LLM         `mapstructure:"llm"`
	Replication Replication `mapstructure:"replication"`
	Server      Server      `mapstructure:"server"`
	Embedder    Embedder    `mapstructure:"embedder"`
	Line        Line        `mapstructure:"line"`
	Google      Google      `mapstructure:"google"`
	Scraper     Scraper     `mapstructure:"scraper"`
	Redis       Redis       `mapstructure:"redis"`
	ChatLog     ChatLog     `mapstructure:"chatlog"`
	Log         Log         `mapstructure:"log"`
}

// LoadConfig reads DefaultPath and exits the process on failure.
func LoadConfig() *Config {
	cfg, err := Load(DefaultPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

// Load reads the yaml file at path (a missing file is not an error), then overlays
// environment variables. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

// bindEnv maps the variable names used by the deployment scripts onto config keys.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("line.channelSecret", "LINE_CHANNEL_SECRET")
	_ = v.BindEnv("line.channelToken", "LINE_CHANNEL_TOKEN")
	_ = v.BindEnv("google.apiKey", "GOOGLE_MAPS_API_KEY", "GOOGLE_API_KEY", "GOOGLE_PLACES_API_KEY")
	_ = v.BindEnv("llm.token", "OPENAI_API_KEY")
	_ = v.BindEnv("server.publicBaseURL", "PUBLIC_BASE_URL")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.host", "localhost")
	v.SetDefault("llm.port", "11434")
	v.SetDefault("llm.chatModel", "gpt-3.5-turbo")
	v.SetDefault("llm.embeddingModel", "text-embedding-ada-002")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", "4222")
	v.SetDefault("nats.stream", "RESTAURANTS")
	v.SetDefault("nats.restaurantsSubject", "restaurants.changes")

	v.SetDefault("replication.name", "restaurants_pub")
	v.SetDefault("replication.slot", "restaurants_slot")

	v.SetDefault("embedder.workers", 2)
	v.SetDefault("embedder.queueSize", 100)
	v.SetDefault("embedder.chunkSize", 500)
	v.SetDefault("embedder.chunkOverlap", 50)
	v.SetDefault("embedder.batchSize", 100)

	v.SetDefault("google.rateLimit", 10)

	v.SetDefault("scraper.radius", 1000)
	v.SetDefault("scraper.maxPages", 3)
	v.SetDefault("scraper.maxTotal", 1000)
	v.SetDefault("scraper.placeType", "restaurant")
	v.SetDefault("scraper.language", "zh-TW")
	v.SetDefault("scraper.outputFile", "restaurant_google_reviews.json")
	v.SetDefault("scraper.articleRateLimit", 0.5)
	v.SetDefault("scraper.seeds", DefaultSeeds)

	v.SetDefault("redis.ttlSeconds", 86400)

	v.SetDefault("chatlog.path", "chat_history.db")
}
