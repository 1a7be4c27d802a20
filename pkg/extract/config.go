package extract

// Config is the option bundle forwarded to the engine on every call.
//
// MaxCharBuffer bounds the characters per chunk, BatchLength the chunks per
// batch and MaxWorkers the concurrent requests per batch. ExtractionPasses > 1
// re-runs the extraction to improve recall. ResolverParams tune how raw model
// output is resolved into extractions and are engine specific.
type Config struct {
	ModelID              string         `json:"model_id" yaml:"model_id"`
	APIKey               string         `json:"-" yaml:"api_key"`
	APIURL               string         `json:"api_url" yaml:"api_url"`
	MaxCharBuffer        int            `json:"max_char_buffer" yaml:"max_char_buffer"`
	Temperature          float64        `json:"temperature" yaml:"temperature"`
	FenceOutput          bool           `json:"fence_output" yaml:"fence_output"`
	UseSchemaConstraints bool           `json:"use_schema_constraints" yaml:"use_schema_constraints"`
	BatchLength          int            `json:"batch_length" yaml:"batch_length"`
	MaxWorkers           int            `json:"max_workers" yaml:"max_workers"`
	ExtractionPasses     int            `json:"extraction_passes" yaml:"extraction_passes"`
	AdditionalContext    string         `json:"additional_context,omitempty" yaml:"additional_context"`
	ResolverParams       map[string]any `json:"resolver_params,omitempty" yaml:"resolver_params"`
	Debug                bool           `json:"debug" yaml:"debug"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxCharBuffer:        1000,
		Temperature:          0.5,
		FenceOutput:          false,
		UseSchemaConstraints: true,
		BatchLength:          10,
		MaxWorkers:           10,
		ExtractionPasses:     1,
		Debug:                true,
	}
}

// GraphConfig returns the defaults used for graph extraction: smaller chunks
// and a lower temperature for precision.
func GraphConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxCharBuffer = 500
	cfg.Temperature = 0.3
	cfg.BatchLength = 10
	cfg.MaxWorkers = 5
	return cfg
}

// withDefaults fills zero values that would make an engine call meaningless.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxCharBuffer <= 0 {
		c.MaxCharBuffer = d.MaxCharBuffer
	}
	if c.BatchLength <= 0 {
		c.BatchLength = d.BatchLength
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.ExtractionPasses <= 0 {
		c.ExtractionPasses = d.ExtractionPasses
	}
	return c
}
