package openai

import (
	"sync"

	"github.com/OFFIS-RIT/lexgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient talks to any OpenAI compatible chat completion endpoint
// (OpenAI, DashScope compatible mode, vLLM, ...).
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	extractionModel string

	chatURL string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ExtractionModel is the default model; callers may override it per
// request with ai.WithModel. An empty ChatURL selects the OpenAI API.
type NewGraphOpenAIClientParams struct {
	ExtractionModel string

	ChatURL    string
	ChatKey    string
	MaxRetries int
}

// NewGraphOpenAIClient creates a client for the configured endpoint.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ExtractionModel: "qwen-long",
//		ChatURL:         "https://dashscope.aliyuncs.com/compatible-mode/v1",
//		ChatKey:         os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	return &GraphOpenAIClient{
		extractionModel: params.ExtractionModel,
		chatURL:         params.ChatURL,
		metricsLock:     sync.Mutex{},
		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey, params.MaxRetries),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
	maxRetries int,
) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	// Retries are owned by the extraction orchestrator.
	options = append(options, option.WithMaxRetries(maxRetries))

	client := openai.NewClient(options...)

	return &client
}
