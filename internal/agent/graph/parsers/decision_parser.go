package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentic-rag/server/internal/agent/model"
)

// basic safety limit to avoid pathological model outputs
const maxContentLen = 64 * 1024 // 64KB

// ParseDecision extracts and validates a structured AgentDecision from raw
// model output. Models occasionally wrap the JSON in code fences or prose,
// so parsing starts at the outermost object. Any failure here is recoverable:
// the classifier converts it into the fallback decision.
func ParseDecision(content string) (*model.AgentDecision, error) {
	if len(content) > maxContentLen {
		return nil, fmt.Errorf("decision output too large (%d bytes)", len(content))
	}

	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var d model.AgentDecision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}

	if err := validateDecision(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// extractJSONObject returns the substring spanning the first '{' through the
// last '}', which is tolerant of code fences and leading/trailing prose.
func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in decision output")
	}
	return s[start : end+1], nil
}

// validateDecision enforces the tool_name/action agreement invariant and the
// per-action required fields.
func validateDecision(d *model.AgentDecision) error {
	switch d.ToolName {
	case model.ToolSearchKnowledgeBase:
		if d.Search == nil {
			return fmt.Errorf("tool_name is %s but search action is missing", d.ToolName)
		}
		if d.Booking != nil {
			return fmt.Errorf("tool_name is %s but booking action is also present", d.ToolName)
		}
		if strings.TrimSpace(d.Search.Query) == "" {
			return fmt.Errorf("search action has empty query")
		}
	case model.ToolBookInterview:
		if d.Booking == nil {
			return fmt.Errorf("tool_name is %s but booking action is missing", d.ToolName)
		}
		if d.Search != nil {
			return fmt.Errorf("tool_name is %s but search action is also present", d.ToolName)
		}
		if strings.TrimSpace(d.Booking.ReceiverEmail) == "" ||
			strings.TrimSpace(d.Booking.UserName) == "" ||
			strings.TrimSpace(d.Booking.AppointmentDate) == "" {
			return fmt.Errorf("booking action is missing required fields")
		}
	case "":
		return fmt.Errorf("decision has no tool_name")
	default:
		return fmt.Errorf("unknown tool_name %q", d.ToolName)
	}
	return nil
}
