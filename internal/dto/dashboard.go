package dto

import (
	"github.com/GregMSThompson/agent-dashboard/internal/dashboard"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
)

// DefaultBrand is shown when the dashboard theme carries no brand.
const DefaultBrand = "Intelligent Dashboard"

// Input source labels, in priority order.
const (
	SourceFile    = "file"
	SourceUpload  = "upload"
	SourceParam   = "param"
	SourceBody    = "body"
	SourceExample = "example"
	SourceSample  = "sample"
)

// --- Request types ---

// RenderRequest carries every input candidate of one render call. The first
// non-blank one wins.
type RenderRequest struct {
	FileName  string
	Upload    []byte
	JSONParam string
	Body      []byte

	// PersistedSelection is the selection token the client echoed back.
	PersistedSelection string
	Refresh            bool
}

// --- Response types ---

type RenderResponse struct {
	Header     HeaderData            `json:"header"`
	Theme      dashboard.Theme       `json:"theme"`
	Columns    int                   `json:"columns"`
	Answer     string                `json:"answer,omitempty"`
	WhatsNext  string                `json:"whatsnext,omitempty"`
	Summary    string                `json:"summary,omitempty"`
	Model      dashboard.RenderModel `json:"model"`
	Properties PropertyList          `json:"properties"`
	Selected   string                `json:"selectedProperty"`
	Source     string                `json:"source"`
	IsSample   bool                  `json:"isSample"`

	// SelectionChanged asks the transport to persist Selected.
	SelectionChanged bool `json:"-"`
}

type HeaderData struct {
	Brand        string   `json:"brand"`
	UserQuestion string   `json:"userQuestion,omitempty"`
	PeriodStart  string   `json:"periodStart,omitempty"`
	PeriodEnd    string   `json:"periodEnd,omitempty"`
	CompareType  string   `json:"compareType,omitempty"`
	Filters      []string `json:"filters,omitempty"`
}

// PropertyList is a normalized property list plus the status of the load that
// produced it.
type PropertyList struct {
	Records   []properties.Record `json:"records"`
	Message   string              `json:"message,omitempty"`
	Refreshed bool                `json:"refreshed"`
}
