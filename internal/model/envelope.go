package model

// InboundEnvelope is the payload consumed from the inbound messages topic.
type InboundEnvelope struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Content   string `json:"content"`
	Direction string `json:"direction,omitempty"` // defaults to inbound
}
