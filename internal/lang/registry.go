package lang

import "sort"

// Registry maps file extensions to the LanguageProvider that handles them.
// The mapping is deterministic and total over the registered set: a lookup
// either returns a known provider or ok=false, with no ambiguity between
// providers (registering a second provider for an already-claimed
// extension is a programming error, not a runtime fallback).
type Registry struct {
	byExtension map[string]LanguageProvider
	byLanguage  map[string]LanguageProvider
}

// NewRegistry builds the closed set of supported languages named in the
// specification: python, javascript, typescript, go, rust, c, cpp, java,
// css, html.
func NewRegistry() *Registry {
	r := &Registry{
		byExtension: make(map[string]LanguageProvider),
		byLanguage:  make(map[string]LanguageProvider),
	}
	for _, p := range []LanguageProvider{
		newGoProvider(),
		newPythonProvider(),
		newJavaScriptProvider(),
		newTypeScriptProvider(),
		newRustProvider(),
		newJavaProvider(),
		newCProvider(),
		newCppProvider(),
		newCSSProvider(),
		newHTMLProvider(),
	} {
		r.register(p)
	}
	return r
}

func (r *Registry) register(p LanguageProvider) {
	r.byLanguage[p.Language()] = p
	for _, ext := range p.Extensions() {
		r.byExtension[ext] = p
	}
}

// ForExtension returns the provider registered for ext (leading dot
// included), or ok=false if the extension is unrecognized.
func (r *Registry) ForExtension(ext string) (LanguageProvider, bool) {
	p, ok := r.byExtension[ext]
	return p, ok
}

// ForLanguage returns the provider registered under language name lang.
func (r *Registry) ForLanguage(lang string) (LanguageProvider, bool) {
	p, ok := r.byLanguage[lang]
	return p, ok
}

// Languages returns every registered language name, sorted, for stable
// iteration (config validation, diagnostics).
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.byLanguage))
	for name := range r.byLanguage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
