// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

// =============================================================================
// PROVIDER AND FORMAT TYPES
// =============================================================================

// Provider identifies which backend serves a model.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderCustom     Provider = "custom"
)

// APIFormat identifies the request body shape a model expects.
type APIFormat string

const (
	// FormatOpenAI is the standard chat completions body with model,
	// messages, temperature and max_tokens.
	FormatOpenAI APIFormat = "openai"

	// FormatMinimal is a bare body carrying only the messages array.
	FormatMinimal APIFormat = "minimal"
)

// =============================================================================
// MODEL DESCRIPTOR
// =============================================================================

// Descriptor holds the static metadata for a selectable model.
type Descriptor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Provider    Provider  `json:"provider"`
	APIFormat   APIFormat `json:"api_format"`
	Free        bool      `json:"free"`
}

// =============================================================================
// CATALOG
// =============================================================================

// catalog is the built-in model table. It is populated once at package
// load and never mutated afterward; Lookup returns copies by value.
var catalog = map[string]Descriptor{}

// catalogOrder preserves declaration order for listing.
var catalogOrder []string

func register(d Descriptor) {
	catalog[d.ID] = d
	catalogOrder = append(catalogOrder, d.ID)
}

func init() {
	register(Descriptor{
		ID:          "microsoft/wizardlm-2-8x22b",
		Name:        "WizardLM 2 8x22B",
		Description: "Free high-performance reasoning model",
		Provider:    ProviderOpenRouter,
		APIFormat:   FormatOpenAI,
		Free:        true,
	})
	register(Descriptor{
		ID:          "meta-llama/llama-3.1-8b-instruct:free",
		Name:        "Llama 3.1 8B",
		Description: "Meta's free instruction-tuned model",
		Provider:    ProviderOpenRouter,
		APIFormat:   FormatOpenAI,
		Free:        true,
	})
	register(Descriptor{
		ID:          "mistralai/mistral-7b-instruct:free",
		Name:        "Mistral 7B",
		Description: "Fast and efficient free model",
		Provider:    ProviderOpenRouter,
		APIFormat:   FormatOpenAI,
		Free:        true,
	})
	register(Descriptor{
		ID:          "google/gemma-7b-it:free",
		Name:        "Gemma 7B",
		Description: "Google's free instruction model",
		Provider:    ProviderOpenRouter,
		APIFormat:   FormatOpenAI,
		Free:        true,
	})
	register(Descriptor{
		ID:          "huggingface/starcoder2-15b:free",
		Name:        "StarCoder2 15B",
		Description: "Free code generation model",
		Provider:    ProviderOpenRouter,
		APIFormat:   FormatOpenAI,
		Free:        true,
	})
	register(Descriptor{
		ID:          "nousresearch/nous-capybara-7b:free",
		Name:        "Nous Capybara 7B",
		Description: "Free conversational model",
		Provider:    ProviderOpenRouter,
		APIFormat:   FormatOpenAI,
		Free:        true,
	})
}

// DefaultModelID is the model new chats target when the user has not
// selected one.
const DefaultModelID = "microsoft/wizardlm-2-8x22b"

// Lookup resolves a model identifier against the catalog. The second
// return value reports whether the identifier is known.
func Lookup(id string) (Descriptor, bool) {
	d, ok := catalog[id]
	return d, ok
}

// Catalog returns all known models in declaration order. The returned
// slice is freshly allocated on each call.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		out = append(out, catalog[id])
	}
	return out
}
