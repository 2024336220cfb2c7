package voice

import "context"

// Provider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider SDK or HTTP calls outside voice adapters.
// - Keep request/response types provider-agnostic; the webhook envelope in
//   webhook.go is the only provider payload shape the rest of the system
//   sees.
type Provider interface {
	Name() string

	// StartCall places an outbound AI-conducted interview call and returns
	// the provider's call identifier.
	StartCall(ctx context.Context, req StartCallRequest) (StartCallResult, error)

	// EndCall terminates an in-progress call.
	EndCall(ctx context.Context, providerCallID string) error
}

// StartCallRequest carries everything the provider needs to dial and conduct
// an interview.
type StartCallRequest struct {
	CandidateName  string `json:"candidate_name"`
	CandidatePhone string `json:"candidate_phone"`
	Position       string `json:"position"`
}

type StartCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	// It doubles as the realtime room name.
	ProviderCallID string `json:"provider_call_id"`
}
