package model

// ResponseType classifies how the orchestrator will handle a request.
type ResponseType string

const (
	ResponseConversational ResponseType = "conversational"
	ResponseDataOnly       ResponseType = "data_only"
	ResponseDashboard      ResponseType = "dashboard"
	ResponseClarification  ResponseType = "clarification"
)

// Domain is the business area a request is routed to.
type Domain string

const (
	DomainSales         Domain = "sales"
	DomainInventory     Domain = "inventory"
	DomainConversations Domain = "conversations"
	DomainEscalations   Domain = "escalations"
	DomainPresale       Domain = "presale"
)

// ClarificationData is attached to a RoutingDecision when the router
// could not resolve a request without asking the user something back.
type ClarificationData struct {
	Question          string   `json:"question"`
	Options           []string `json:"options"`
	UnderstoodContext string   `json:"understood_context"`
}

// RoutingDecision is the Intent Router's output.
type RoutingDecision struct {
	ResponseType   ResponseType       `json:"response_type"`
	NeedsSQL       bool               `json:"needs_sql"`
	NeedsDashboard bool               `json:"needs_dashboard"`
	NeedsNarrative bool               `json:"needs_narrative"`
	Domain         Domain             `json:"domain,omitempty"`
	DirectResponse string             `json:"direct_response,omitempty"`
	Clarification  *ClarificationData `json:"clarification,omitempty"`
	Confidence     float64            `json:"confidence"`
	Reasoning      string             `json:"reasoning"`
}
