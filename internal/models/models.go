package models

// ==================== Responses API Request Models ====================

// ResponsesRequest represents a Responses API request sent to the model provider
type ResponsesRequest struct {
	Model           string      `json:"model"`
	Input           []InputItem `json:"input,omitempty"`
	Tools           []Tool      `json:"tools,omitempty"`
	ToolChoice      interface{} `json:"tool_choice,omitempty"` // "auto", "none", "required" or ForcedToolChoice
	Temperature     *float64    `json:"temperature,omitempty"`
	MaxOutputTokens int         `json:"max_output_tokens,omitempty"`
}

// InputItem is one entry of the conversation, tagged by Type.
// Valid shapes are produced by the constructors below; consumers switch on
// Type rather than probing fields.
type InputItem struct {
	Type      string        `json:"type"` // "message", "function_call", "function_call_output"
	ID        string        `json:"id,omitempty"`
	Role      string        `json:"role,omitempty"` // "system", "user", "assistant"
	Content   []ContentItem `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
	Status    string        `json:"status,omitempty"`
}

// ContentItem represents content within a message
type ContentItem struct {
	Type string `json:"type"` // "input_text", "output_text", "refusal"
	Text string `json:"text,omitempty"`
}

// SystemMessage builds a system instruction input item
func SystemMessage(text string) InputItem {
	return InputItem{
		Type:    "message",
		Role:    "system",
		Content: []ContentItem{{Type: "input_text", Text: text}},
	}
}

// UserMessage builds a user message input item
func UserMessage(text string) InputItem {
	return InputItem{
		Type:    "message",
		Role:    "user",
		Content: []ContentItem{{Type: "input_text", Text: text}},
	}
}

// FunctionCall builds the assistant's tool-invocation request as an input
// item so it can be appended back to the conversation
func FunctionCall(callID, name, arguments string) InputItem {
	return InputItem{
		Type:      "function_call",
		CallID:    callID,
		Name:      name,
		Arguments: arguments,
	}
}

// FunctionCallOutput builds a tool-execution output item tagged with the
// call ID of the invocation it answers
func FunctionCallOutput(callID, output string) InputItem {
	return InputItem{
		Type:   "function_call_output",
		CallID: callID,
		Output: output,
	}
}

// Tool represents a function declaration advertised to the model.
// The Responses API uses the flat form: name and parameters at the top level.
type Tool struct {
	Type        string                 `json:"type"` // "function"
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Strict      *bool                  `json:"strict,omitempty"`
}

// ForcedToolChoice pins the model to one declared function
type ForcedToolChoice struct {
	Type string `json:"type"` // "function"
	Name string `json:"name"`
}

// ForceFunction builds a tool_choice directive requiring the named function
func ForceFunction(name string) ForcedToolChoice {
	return ForcedToolChoice{Type: "function", Name: name}
}

// ToolChoiceAuto lets the model decide whether to call a tool
const ToolChoiceAuto = "auto"

// ==================== Responses API Response Models ====================

// ResponsesResponse represents the Responses API response
type ResponsesResponse struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	CreatedAt int64        `json:"created_at"`
	Status    string       `json:"status"`
	Model     string       `json:"model"`
	Output    []OutputItem `json:"output"`
	Usage     UsageInfo    `json:"usage,omitempty"`
}

// OutputItem represents an item in the output array
type OutputItem struct {
	Type      string        `json:"type"` // "message", "function_call"
	ID        string        `json:"id"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentItem `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Status    string        `json:"status,omitempty"`
}

// OutputText concatenates the output_text content of all message items
func (r *ResponsesResponse) OutputText() string {
	var text string
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				text += c.Text
			}
		}
	}
	return text
}

// FirstFunctionCall returns the first function_call output item, if any
func (r *ResponsesResponse) FirstFunctionCall() (*OutputItem, bool) {
	for i := range r.Output {
		if r.Output[i].Type == "function_call" {
			return &r.Output[i], true
		}
	}
	return nil, false
}

// UsageInfo represents token usage information
type UsageInfo struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ==================== Error Models ====================

// ErrorResponse represents an error response from the model provider
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
