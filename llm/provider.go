package llm

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures NewProvider. Empty fields fall back to provider defaults;
// an empty APIKey falls back to OPENAI_API_KEY or ANTHROPIC_API_KEY.
type Options struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Retries    int
	Logger     logrus.FieldLogger
}

// UnknownProviderError is returned for provider names other than openai and
// anthropic.
type UnknownProviderError struct{ Name string }

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q (use openai or anthropic)", e.Name)
}

// NewProvider builds the named provider.
func NewProvider(opt Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opt.Provider)) {
	case "", "openai":
		key := opt.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return &OpenAI{BaseURL: opt.BaseURL, APIKey: key, Model: opt.Model, HTTPClient: opt.HTTPClient, Retries: opt.Retries, Logger: opt.Logger}, nil
	case "anthropic":
		key := opt.APIKey
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}
		return &Anthropic{BaseURL: opt.BaseURL, APIKey: key, Model: opt.Model, HTTPClient: opt.HTTPClient, Retries: opt.Retries, Logger: opt.Logger}, nil
	}
	return nil, &UnknownProviderError{Name: opt.Provider}
}

// DefaultModel returns the model used when a request names none.
func DefaultModel(provider string) string {
	if strings.EqualFold(provider, "anthropic") {
		return DefaultAnthropicModel
	}
	return DefaultOpenAIModel
}
