package tools

import "github.com/rhuss/chatwire/pkg/schema"

// FilterResult holds the outcome of filtering tool calls against an allow list.
type FilterResult struct {
	// Allowed contains tool calls that passed the filter.
	Allowed []schema.ToolCall

	// Rejected contains an error result for every call that was not allowed.
	Rejected []Result
}

// FilterAllowedTools checks each tool call against the allowed list.
// If allowedTools is empty, all tool calls are allowed.
func FilterAllowedTools(calls []schema.ToolCall, allowedTools []string) FilterResult {
	if len(allowedTools) == 0 {
		return FilterResult{Allowed: calls}
	}

	allowed := make(map[string]bool, len(allowedTools))
	for _, name := range allowedTools {
		allowed[name] = true
	}

	var result FilterResult
	for _, call := range calls {
		if allowed[call.Function.Name] {
			result.Allowed = append(result.Allowed, call)
		} else {
			result.Rejected = append(result.Rejected, *ErrorResult(call.ID,
				"tool %s is not in the allowed tools list", call.Function.Name))
		}
	}
	return result
}
