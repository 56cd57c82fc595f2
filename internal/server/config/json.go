package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/r-scheele/authgate/internal/flagx"
)

// Duration wraps time.Duration for JSON unmarshalling. It accepts both
// string values such as "15m" and integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration value %q", string(data))
	}
	return nil
}

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, the set fields are copied into
// the runtime Config; fields absent from the file keep their defaults.
type JsonConfig struct {
	HTTPAddr                     string   `json:"http_addr"`
	DatabaseDSN                  string   `json:"database_dsn"`
	SecretKey                    string   `json:"secret_key"`
	JWTAlgorithm                 string   `json:"jwt_algorithm"`
	AccessTokenValidityDuration  Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int      `json:"bcrypt_cost"`
	Production                   *bool    `json:"production"`
	SMTPHost                     string   `json:"smtp_host"`
	SMTPPort                     int      `json:"smtp_port"`
	SMTPUser                     string   `json:"smtp_user"`
	SMTPPassword                 string   `json:"smtp_password"`
	SMTPFrom                     string   `json:"smtp_from"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.JWTAlgorithm != "" {
		config.JWTAlgorithm = c.JWTAlgorithm
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.Production != nil {
		config.Production = *c.Production
	}
	if c.SMTPHost != "" {
		config.SMTPHost = c.SMTPHost
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.SMTPUser != "" {
		config.SMTPUser = c.SMTPUser
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
}
