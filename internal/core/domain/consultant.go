package domain

import "time"

// RequestStatus is the state of a consultant request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending: {RequestAccepted, RequestDeclined},
}

// CanTransitionTo reports whether a request may move from s to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ConsultantRequest is a consultant's ask to advise a farm.
type ConsultantRequest struct {
	ID           string
	FarmID       string
	ConsultantID string
	Status       RequestStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConsultantLink is the accepted association between a consultant and a farm.
type ConsultantLink struct {
	ID           string
	FarmID       string
	ConsultantID string
	IsActive     bool
	CreatedAt    time.Time
}

// ConsultantRequestView joins a request with both accounts' identity data.
type ConsultantRequestView struct {
	Request    *ConsultantRequest
	Farm       AccountProfile
	Consultant AccountProfile
}

// RequestAction is what a farm does with a pending request.
type RequestAction string

const (
	ActionAccept  RequestAction = "accept"
	ActionDecline RequestAction = "decline"
)

// Target returns the status an action moves a request to.
func (a RequestAction) Target() (RequestStatus, bool) {
	switch a {
	case ActionAccept:
		return RequestAccepted, true
	case ActionDecline:
		return RequestDeclined, true
	}
	return "", false
}
