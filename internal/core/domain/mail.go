package domain

// Mail is an outbound email message.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`

	// Kind tags the message for downstream consumers, e.g. "otp".
	Kind string `json:"kind"`
}
