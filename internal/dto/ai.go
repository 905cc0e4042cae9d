package dto

// AskRequest is the body of an ask call from the dashboard page.
type AskRequest struct {
	Question     string `json:"question"`
	Dashboard    any    `json:"dashboard,omitempty"`
	PropertyID   string `json:"propertyId,omitempty"`
	PropertyFull string `json:"propertyFull,omitempty"`
}

// AgentRequest is what the agent backend receives. PropertyID is the bare numeric
// id, PropertyFull the "properties/<id>" form.
type AgentRequest struct {
	Question     string `json:"question"`
	Dashboard    any    `json:"dashboard"`
	PropertyID   string `json:"propertyId"`
	PropertyFull string `json:"propertyFull"`
}

// PropertyForm is the JSON form of a property selection post.
type PropertyForm struct {
	Property string `json:"property"`
}
