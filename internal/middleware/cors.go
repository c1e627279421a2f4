package middleware

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	log "github.com/sirupsen/logrus"

	"callcrm-backend/internal/config"
)

// SecureCORSConfig builds the CORS policy from CORS_ORIGINS. Development
// adds localhost origins; production refuses a wildcard.
func SecureCORSConfig() cors.Config {
	cfg := cors.DefaultConfig()

	var allowedOrigins []string
	for _, origin := range strings.Split(config.GetEnv("CORS_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if err := validateCORSOrigin(origin); err != nil {
			log.WithError(err).WithField("origin", origin).Warn("invalid CORS origin, skipping")
			continue
		}
		allowedOrigins = append(allowedOrigins, origin)
	}

	env := strings.ToLower(config.GetEnv("ENVIRONMENT", ""))
	if env == "development" || env == "dev" {
		for _, origin := range []string{"http://localhost:3000", "http://localhost:8080"} {
			if !containsString(allowedOrigins, origin) {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	if len(allowedOrigins) == 0 {
		log.Warn("no CORS origins configured, CORS will be restrictive")
		allowedOrigins = []string{"https://example.com"}
	}

	if containsString(allowedOrigins, "*") && (env == "production" || env == "prod") {
		log.Fatal("wildcard CORS origin (*) is not allowed in production")
	}

	cfg.AllowOrigins = allowedOrigins
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	cfg.ExposeHeaders = []string{"Content-Length", "Content-Type"}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour

	return cfg
}

func validateCORSOrigin(origin string) error {
	if origin == "*" {
		return nil
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid scheme: %s (must be http or https)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in origin")
	}
	return nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
