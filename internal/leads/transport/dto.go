// Package transport defines the request and response shapes for the leads
// HTTP surface.
package transport

// ProcessMessageRequest feeds a single message through the scoring pipeline.
// Operators use it to replay or test messages without the gateway.
type ProcessMessageRequest struct {
	Phone string `json:"phone" validate:"required,min=5,max=20"`
	Text  string `json:"text" validate:"required,min=1,max=4000"`
}

// RegisterLeadRequest creates or refreshes a lead outside the message flow.
type RegisterLeadRequest struct {
	Phone  string `json:"phone" validate:"required,min=5,max=20"`
	Name   string `json:"name" validate:"omitempty,max=200"`
	Source string `json:"source" validate:"omitempty,max=50"`
}

// ListLeadsQuery filters the lead listing.
type ListLeadsQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=new cold warm qualified"`
	MinScore int    `form:"minScore" validate:"omitempty,min=0,max=100"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

// HistoryQuery bounds conversation and automation log reads.
type HistoryQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}
