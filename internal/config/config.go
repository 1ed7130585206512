package config

// Config holds all application configuration.
// It is loaded once at process start and treated as immutable afterwards.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm" validate:"required"`
	Geocode GeocodeConfig `mapstructure:"geocode" validate:"required"`
	Task    TaskConfig    `mapstructure:"task" validate:"required"`
	Output  OutputConfig  `mapstructure:"output" validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// LogFile is optional; when set, logs fan out to stderr and the file.
	LogFile string `mapstructure:"log_file"`
	// AllowedOrigins is the CORS allow-list. "*" allows every origin.
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"required,min=1"`
}

// LLMConfig contains the text-generation collaborator settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	PromptDir         string `mapstructure:"prompt_dir" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// GeocodeConfig contains the geocoding client settings.
type GeocodeConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"gt=0"`
	// MapscoAPIKey enables the geocode.maps.co fallback endpoint when set.
	MapscoAPIKey string `mapstructure:"mapsco_api_key"`
	// MaxConcurrent bounds the geocode fan-out inside one person's pipeline.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"gt=0"`
}

// TaskConfig contains the scheduler settings.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
	// MaxInputLen is the submission text limit, counted in code points.
	MaxInputLen int `mapstructure:"max_input_len" validate:"gt=0"`
}

// OutputConfig contains the filesystem layout for generated artifacts.
type OutputConfig struct {
	// Root is the directory under which story/ and story_map/ are created.
	Root string `mapstructure:"root" validate:"required"`
}
