package lifecycle

import "context"

// LLMAdapter wraps an OllamaManager as the httpapi.LLMService collaborator:
// ProcessRequest runs one completion against Model, Available reports
// whether Ollama is reachable and the model is pulled.
type LLMAdapter struct {
	Manager *OllamaManager
	Model   string
}

// NewLLMAdapter builds an adapter targeting model on manager.
func NewLLMAdapter(manager *OllamaManager, model string) *LLMAdapter {
	return &LLMAdapter{Manager: manager, Model: model}
}

// ProcessRequest synthesizes an answer from prompt via Ollama. params is
// accepted for interface compatibility with other LLMService providers;
// this adapter does not use it beyond logging context handled upstream.
func (a *LLMAdapter) ProcessRequest(ctx context.Context, prompt string, params map[string]any) (string, error) {
	return a.Manager.Generate(ctx, a.Model, prompt)
}

// Available reports whether Ollama is running and Model is pulled.
func (a *LLMAdapter) Available(ctx context.Context) bool {
	running, err := a.Manager.IsRunning()
	if err != nil || !running {
		return false
	}
	has, err := a.Manager.HasModel(ctx, a.Model)
	return err == nil && has
}
