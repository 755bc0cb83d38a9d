package config

import "os"

type Config struct {
	MongoURI  string
	RedisAddr string
	HTTPPort  string

	GHLBaseURL         string
	GHLAPIKey          string
	GeocoderBaseURL    string
	GeocoderAPIKey     string
	ServiceAreaBaseURL string
	QuoteBaseURL       string
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("HTTP_PORT", "8080"),

		GHLBaseURL:         getEnv("GHL_BASE_URL", "https://rest.gohighlevel.com/v1"),
		GHLAPIKey:          getEnv("GHL_API_KEY", ""),
		GeocoderBaseURL:    getEnv("GEOCODER_BASE_URL", "https://maps.googleapis.com/maps/api/geocode"),
		GeocoderAPIKey:     getEnv("GEOCODER_API_KEY", ""),
		ServiceAreaBaseURL: getEnv("SERVICE_AREA_BASE_URL", "http://localhost:8090"),
		QuoteBaseURL:       getEnv("QUOTE_BASE_URL", "http://localhost:8091"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
