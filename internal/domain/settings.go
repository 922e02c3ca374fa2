package domain

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Settings is the backend-wide LLM configuration used when an agent carries
// none of its own.
type Settings struct {
	LLM LLMConfig
}

func DefaultSettings() Settings {
	return Settings{LLM: DefaultLLMConfig()}
}

func (s Settings) WithDefaults() Settings {
	s.LLM = s.LLM.WithDefaults()
	return s
}

func (s Settings) Validate() error {
	llm := s.LLM
	err := validation.ValidateStruct(&llm,
		validation.Field(&llm.Provider,
			validation.Required,
			validation.In(ProviderGemini, ProviderOllama).Error("must be gemini or ollama"),
		),
		validation.Field(&llm.OllamaBaseURL, validation.When(llm.UsesOllama(), validation.Required)),
		validation.Field(&llm.OllamaModel, validation.When(llm.UsesOllama(), validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
