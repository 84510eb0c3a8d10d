// pkg/registry/schema.go

// Package registry describes the activity catalog: one entry per worker
// task type, with the schemas its process variables must satisfy. The
// registry file is the contract between the BPMN models and the worker
// fleet; the registry-updater tool keeps it consistent.
package registry

// ActivityRegistry is the on-disk catalog.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity is one catalog entry. InputSchema and OutputSchema hold raw
// JSON Schema documents; they compile through the validation package.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}
