package app

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coredatabase "github.com/m3rciful/intakebot/core/database"
	"github.com/m3rciful/intakebot/intake/templates"
)

const (
	// TemplatesFile keeps texts in a YAML (or legacy JSON) file.
	TemplatesFile = "file"
	// TemplatesPostgres keeps texts in the intake_texts table.
	TemplatesPostgres = "postgres"

	// SessionsMemory keeps sessions in process memory.
	SessionsMemory = "memory"
	// SessionsRedis keeps sessions in Redis so they survive a restart.
	SessionsRedis = "redis"
)

// IntakeConfig shapes the questionnaire.
type IntakeConfig struct {
	Questions          []string `yaml:"questions"`
	SupervisorLanguage string   `yaml:"supervisor_language" envconfig:"INTAKE_SUPERVISOR_LANGUAGE"`
	ForwardSummary     bool     `yaml:"forward_summary" envconfig:"INTAKE_FORWARD_SUMMARY"`
	SettingsCommand    string   `yaml:"settings_command"`
}

// TemplatesConfig selects the text storage.
type TemplatesConfig struct {
	Driver          string `yaml:"driver" envconfig:"TEMPLATES_DRIVER"`
	Path            string `yaml:"path" envconfig:"TEMPLATES_PATH"`
	RecreateMissing bool   `yaml:"recreate_missing"`
	TimeoutMS       int    `yaml:"timeout_ms"`
}

// SessionsConfig selects the session storage.
type SessionsConfig struct {
	Driver     string `yaml:"driver" envconfig:"SESSIONS_DRIVER"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// RedisConfig points at the Redis server used by the redis session driver.
type RedisConfig struct {
	URL string `yaml:"url" envconfig:"REDIS_URL"`
}

// HTTPConfig enables the status endpoint when Listen is set.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
}

// Config is the full bot configuration: the shared core plus the intake sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Intake    IntakeConfig        `yaml:"intake"`
	Templates TemplatesConfig     `yaml:"templates"`
	Sessions  SessionsConfig      `yaml:"sessions"`
	Database  coredatabase.Config `yaml:"database"`
	Redis     RedisConfig         `yaml:"redis"`
	HTTP      HTTPConfig          `yaml:"http"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the intake sections on top of the core rules and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	questions := make([]string, 0, len(cfg.Intake.Questions))
	seen := make(map[string]struct{}, len(cfg.Intake.Questions))
	for _, q := range cfg.Intake.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			return fmt.Errorf("intake.questions: duplicate key %q", q)
		}
		if templates.Reserved(q) {
			return fmt.Errorf("intake.questions: %q is a reserved text key", q)
		}
		seen[q] = struct{}{}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		questions = []string{"question_1", "question_2"}
	}
	cfg.Intake.Questions = questions

	lang := strings.ToLower(strings.TrimSpace(cfg.Intake.SupervisorLanguage))
	if lang == "" {
		lang = templates.Languages[0].Code
	}
	if !knownLanguage(lang) {
		return fmt.Errorf("invalid intake.supervisor_language %q", cfg.Intake.SupervisorLanguage)
	}
	cfg.Intake.SupervisorLanguage = lang

	if strings.TrimSpace(cfg.Intake.SettingsCommand) == "" {
		cfg.Intake.SettingsCommand = "/settings"
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Templates.Driver))
	if driver == "" {
		driver = TemplatesFile
	}
	switch driver {
	case TemplatesFile:
		if strings.TrimSpace(cfg.Templates.Path) == "" {
			cfg.Templates.Path = "texts.yaml"
		}
	case TemplatesPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when templates.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid templates.driver %q; allowed: file, postgres", cfg.Templates.Driver)
	}
	cfg.Templates.Driver = driver
	if cfg.Templates.TimeoutMS < 0 {
		return fmt.Errorf("templates.timeout_ms must be >= 0")
	}

	sd := strings.ToLower(strings.TrimSpace(cfg.Sessions.Driver))
	if sd == "" {
		sd = SessionsMemory
	}
	switch sd {
	case SessionsMemory:
	case SessionsRedis:
		if strings.TrimSpace(cfg.Redis.URL) == "" {
			return fmt.Errorf("redis.url is required when sessions.driver is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.driver %q; allowed: memory, redis", cfg.Sessions.Driver)
	}
	cfg.Sessions.Driver = sd
	if cfg.Sessions.TTLMinutes < 0 {
		return fmt.Errorf("sessions.ttl_minutes must be >= 0")
	}
	return nil
}

func knownLanguage(code string) bool {
	for _, l := range templates.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}
