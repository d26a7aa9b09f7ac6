package types

// Category represents service categories
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategorySystem     Category = "system"
)

// Service represents a service definition
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
	Instructions string   `json:"instructions,omitempty"`
}

// Tool represents a service tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
	ReadOnly    bool        `json:"read_only,omitempty"`
	Destructive bool        `json:"destructive,omitempty"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

// Context carries per-call information from the transport to the provider
type Context struct {
	RequestID string  `json:"request_id,omitempty"`
	Transport string  `json:"transport,omitempty"`
	ClientID  *string `json:"client_id,omitempty"`
}

// Result represents a service execution result
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`
}

// Value returns the tool's return value, stored under the "result" key
func (r *Result) Value() any {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data["result"]
}
