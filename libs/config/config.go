package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var v = newViper()

func newViper() *viper.Viper {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	vp := viper.New()
	vp.AutomaticEnv()
	return vp
}

func String(key, fallback string) string {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return fallback
	}
	return s
}

func RequiredString(key string) (string, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func Port(key, fallback string) (string, error) {
	s := String(key, fallback)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, s)
	}
	return s, nil
}

// Int returns fallback when the key is unset or not a positive integer.
func Int(key string, fallback int) int {
	v.SetDefault(key, fallback)
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return fallback
}

// Duration accepts Go duration strings ("5s", "1m30s").
func Duration(key string, fallback time.Duration) time.Duration {
	v.SetDefault(key, fallback)
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

// Bool treats any value viper cannot read as a boolean as false.
func Bool(key string, fallback bool) bool {
	v.SetDefault(key, fallback)
	return v.GetBool(key)
}

// List splits a comma separated value, dropping blanks.
func List(key string) []string {
	var out []string
	for _, part := range strings.Split(String(key, ""), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
