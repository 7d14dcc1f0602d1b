package config

// Config is the full daemon configuration. YAML and JSON are both accepted;
// YAML is coerced to JSON and decoded strictly, so unknown keys are rejected
// in either format.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Generator GeneratorConfig `json:"generator"`
	Daily     DailyConfig     `json:"daily"`
	Telegram  *TelegramConfig `json:"telegram,omitempty"`
}

type LoggingConfig struct {
	Level   string          `json:"level,omitempty"`
	Console bool            `json:"console"`
	File    LogFileConfig   `json:"file,omitempty"`
	Alert   AlertSinkConfig `json:"alert,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// AlertSinkConfig forwards high-severity log lines to the operator chat.
// Requires the telegram section to be configured.
type AlertSinkConfig struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerMin int    `json:"rate_per_min,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./wordchain.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// GeneratorConfig controls the candidate producer and the validation retry
// loop.
//
// Defaults (when fields are omitted/zero):
//   - model: "gemini-2.5-flash"
//   - attempts: 5
//   - reuse_budget: 2
//   - window_days: 30
//   - rate_per_min: 6
//   - low_water: 14
//   - batch_slots: ["easy", "medium", "hard"]
type GeneratorConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`

	// Attempts bounds the retry-with-escalation loop per difficulty slot.
	Attempts int `json:"attempts,omitempty"`
	// ReuseBudget is how many chain words may overlap the recent-word sample.
	ReuseBudget int `json:"reuse_budget,omitempty"`
	// BlockEndpoints rejects candidates reusing a recent endpoint word.
	BlockEndpoints bool `json:"block_endpoints,omitempty"`
	// WindowDays is the generation-time anti-repetition window over pool rows.
	WindowDays int `json:"window_days,omitempty"`
	// RatePerMin caps producer calls.
	RatePerMin int `json:"rate_per_min,omitempty"`
	// LowWater triggers a top-up batch when the approved pool shrinks below it.
	LowWater int `json:"low_water,omitempty"`
	// BatchSlots lists the difficulties one batch fills, in order.
	BatchSlots []string `json:"batch_slots,omitempty"`
}

// DailyConfig controls the daily assignment scheduler.
type DailyConfig struct {
	// WindowDays is the rolling similarity-guard window; 0 means 30.
	WindowDays int `json:"window_days,omitempty"`
	// LaunchDate anchors user-facing day numbering ("2006-01-02").
	// Empty means day numbers are not exposed.
	LaunchDate string `json:"launch_date,omitempty"`
	// AssignCron is the UTC cron spec for the daily assignment job.
	// Default: "5 0 * * *".
	AssignCron string `json:"assign_cron,omitempty"`
	// TopUpCron is the UTC cron spec for the pool top-up check.
	// Default: "30 2 * * *".
	TopUpCron string `json:"topup_cron,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}
