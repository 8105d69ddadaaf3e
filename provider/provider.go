package provider

// Usage holds normalized token accounting for one LLM call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// CallInfo carries the provider-neutral metadata of one LLM call.
type CallInfo struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}
