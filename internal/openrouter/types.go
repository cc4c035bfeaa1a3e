package openrouter

const promptPrefix = "Generate an image based on this description: "

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewChatRequest wraps prompt in the single user message the image models
// expect.
func NewChatRequest(model, prompt string, maxTokens int) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{{
			Role: "user",
			Content: []ContentPart{{
				Type: "text",
				Text: promptPrefix + prompt,
			}},
		}},
		MaxTokens: maxTokens,
	}
}

// RawResponse is the undecoded response body plus a few fields read from
// it for logging.
type RawResponse struct {
	Body        []byte
	ID          string
	Model       string
	Choices     int
	TotalTokens int64
	// ErrorMessage is set when the provider answered 200 with an error
	// object in the body.
	ErrorMessage string
}
