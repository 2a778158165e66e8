package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation. Immutable once appended.
type Message struct {
	ID      string   `json:"id"`
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Source is one citation returned alongside an answer. The answer API may
// send id as a string or a number, so it is kept as-is.
type Source struct {
	ID       any            `json:"id"`
	Score    float64        `json:"score"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Request is the wire body sent to the answer API.
type Request struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Response is the wire body returned by the answer API. Answer is a pointer
// so a body without an answer field can be told apart from an empty answer.
type Response struct {
	Answer  *string  `json:"answer"`
	Sources []Source `json:"sources"`
}
