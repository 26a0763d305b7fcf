package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPrompt          = errors.New("prompt is empty")
	ErrUnknownCloudProvider = errors.New("unknown cloud provider")
	ErrUnknownAIProvider    = errors.New("unknown AI provider")
)

// CloudProvider is the cloud the generated Terraform targets.
type CloudProvider string

const (
	Azure CloudProvider = "azure"
	AWS   CloudProvider = "aws"
	GCP   CloudProvider = "gcp"
)

var cloudProviders = []CloudProvider{Azure, AWS, GCP}

// CloudProviders returns every supported cloud provider in display order.
func CloudProviders() []CloudProvider {
	return append([]CloudProvider(nil), cloudProviders...)
}

func ParseCloudProvider(s string) (CloudProvider, error) {
	for _, p := range cloudProviders {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCloudProvider, s)
}

func (p CloudProvider) String() string { return string(p) }

// Next returns the provider after p, wrapping around.
func (p CloudProvider) Next() CloudProvider {
	return cloudProviders[(indexOf(cloudProviders, p)+1)%len(cloudProviders)]
}

// Prev returns the provider before p, wrapping around.
func (p CloudProvider) Prev() CloudProvider {
	n := len(cloudProviders)
	return cloudProviders[(indexOf(cloudProviders, p)+n-1)%n]
}

// AIProvider is the model vendor the generation backend should use.
type AIProvider string

const (
	Gemini AIProvider = "gemini"
	OpenAI AIProvider = "openai"
)

var aiProviders = []AIProvider{Gemini, OpenAI}

// AIProviders returns every supported AI provider in display order.
func AIProviders() []AIProvider {
	return append([]AIProvider(nil), aiProviders...)
}

func ParseAIProvider(s string) (AIProvider, error) {
	for _, p := range aiProviders {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAIProvider, s)
}

func (p AIProvider) String() string { return string(p) }

func (p AIProvider) Next() AIProvider {
	return aiProviders[(indexOf(aiProviders, p)+1)%len(aiProviders)]
}

func (p AIProvider) Prev() AIProvider {
	n := len(aiProviders)
	return aiProviders[(indexOf(aiProviders, p)+n-1)%n]
}

func indexOf[T comparable](values []T, v T) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return 0
}

// GenerationRequest is the body posted to the generation endpoint.
type GenerationRequest struct {
	CloudProvider CloudProvider `json:"cloud_provider"`
	Prompt        string        `json:"prompt"`
	AIProvider    AIProvider    `json:"provider"`
}

// NewGenerationRequest validates its inputs. The prompt is sent as typed, but
// a blank one is rejected.
func NewGenerationRequest(cloud CloudProvider, prompt string, ai AIProvider) (GenerationRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, ErrEmptyPrompt
	}
	if _, err := ParseCloudProvider(string(cloud)); err != nil {
		return GenerationRequest{}, err
	}
	if _, err := ParseAIProvider(string(ai)); err != nil {
		return GenerationRequest{}, err
	}
	return GenerationRequest{
		CloudProvider: cloud,
		Prompt:        prompt,
		AIProvider:    ai,
	}, nil
}
