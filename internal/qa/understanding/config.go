// internal/qa/understanding/config.go
package understanding

import "time"

type Config struct {
	PivotLanguage string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PivotLanguage: "en",
		Timeout:       30 * time.Second,
	}
}
