package translator

import "fmt"

// Backends lists the names accepted by NewService.
var Backends = []string{"nllb", "ollama", "google", "mymemory"}

// NewService builds the backend called name.
func NewService(name string, cfg ServiceConfig) (TranslationService, error) {
	switch name {
	case "", "nllb":
		return NewNLLBService(cfg.BaseURL), nil
	case "ollama":
		return NewOllamaTranslator(cfg.BaseURL, cfg.Model), nil
	case "google":
		return NewGoogleService(), nil
	case "mymemory":
		return NewMyMemoryService(cfg.BaseURL), nil
	}
	return nil, fmt.Errorf("unknown model backend %q (want one of %v)", name, Backends)
}
