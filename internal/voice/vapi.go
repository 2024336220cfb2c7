package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ai-recruiter/internal/config"
)

// VapiProvider drives outbound interview calls through the Vapi API.
//
// Only StartCall and EndCall touch the network; webhook events arrive through
// the relay and are parsed by the envelope types in webhook.go.

type VapiProvider struct {
	apiKey        string
	phoneNumberID string
	baseURL       string
	client        *http.Client
}

func NewVapiProvider(cfg config.VapiConfig) *VapiProvider {
	return &VapiProvider{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		client:        &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (p *VapiProvider) Name() string { return "vapi" }

// ProviderError carries the provider's HTTP status and response body so the
// REST surface can include the details in its failure response.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("vapi: status %d: %s", e.Status, e.Body)
}

type vapiCallRequest struct {
	PhoneNumberID string        `json:"phoneNumberId"`
	Customer      vapiCustomer  `json:"customer"`
	Assistant     vapiAssistant `json:"assistant"`
}

type vapiCustomer struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

type vapiAssistant struct {
	Model        vapiModel `json:"model"`
	Voice        vapiVoice `json:"voice"`
	FirstMessage string    `json:"firstMessage"`
}

type vapiModel struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Messages []vapiMessage `json:"messages"`
}

type vapiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type vapiVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type vapiCallResponse struct {
	ID string `json:"id"`
}

func (p *VapiProvider) StartCall(ctx context.Context, req StartCallRequest) (StartCallResult, error) {
	body := vapiCallRequest{
		PhoneNumberID: p.phoneNumberID,
		Customer: vapiCustomer{
			Number: req.CandidatePhone,
			Name:   req.CandidateName,
		},
		Assistant: vapiAssistant{
			Model: vapiModel{
				Provider: "openai",
				Model:    "gpt-4",
				Messages: []vapiMessage{
					{Role: "system", Content: interviewPrompt(req.CandidateName, req.Position)},
				},
			},
			Voice: vapiVoice{
				Provider: "11labs",
				VoiceID:  "21m00Tcm4TlvDq8ikWAM",
			},
			FirstMessage: firstMessage(req.CandidateName, req.Position),
		},
	}

	var res vapiCallResponse
	if err := p.post(ctx, "/call", body, &res); err != nil {
		return StartCallResult{}, err
	}
	if res.ID == "" {
		return StartCallResult{}, fmt.Errorf("vapi: call response missing id")
	}
	return StartCallResult{ProviderCallID: res.ID}, nil
}

func (p *VapiProvider) EndCall(ctx context.Context, providerCallID string) error {
	if providerCallID == "" {
		return fmt.Errorf("vapi: call id is required")
	}
	return p.post(ctx, "/call/"+providerCallID+"/end", struct{}{}, nil)
}

func (p *VapiProvider) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("vapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("vapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("vapi: decode response: %w", err)
		}
	}
	return nil
}

func interviewPrompt(candidateName, position string) string {
	return fmt.Sprintf(
		"You are an AI recruiter conducting a voice interview for a %s position. "+
			"Be professional, friendly, and ask relevant technical and behavioral questions. "+
			"Keep responses concise and conversational. The candidate's name is %s.",
		position, candidateName,
	)
}

func firstMessage(candidateName, position string) string {
	return fmt.Sprintf(
		"Hello %s! Thank you for joining today's interview for the %s position. "+
			"I'm your AI interviewer, and I'm excited to learn more about you. "+
			"Could you please start by telling me a bit about yourself and your background?",
		candidateName, position,
	)
}
