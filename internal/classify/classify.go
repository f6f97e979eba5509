// Package classify sends candidate sentences to a language model and turns
// its answer into grouped ESG findings.
package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
	"github.com/dgallion1/esglens/internal/esg"
	"github.com/dgallion1/esglens/internal/llm"
)

// Classifier asks a model to identify initiatives in candidate sentences.
type Classifier struct {
	gen   llm.Generator
	vocab *esg.Vocabulary
	log   *slog.Logger
}

func New(gen llm.Generator, vocab *esg.Vocabulary, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{gen: gen, vocab: vocab, log: log}
}

// Classify makes one model call for the whole sentence list. It never
// fails: service errors and malformed responses are logged and produce an
// empty result. No call is made for an empty list.
func (c *Classifier) Classify(ctx context.Context, sentences []document.Sentence) esg.Grouped {
	if len(sentences) == 0 || c.gen == nil {
		return esg.Grouped{}
	}

	prompt, err := BuildPrompt(c.vocab.Categories(), sentences)
	if err != nil {
		c.log.Error("build classifier prompt", "error", err)
		return esg.Grouped{}
	}

	c.log.Info("classifying sentences", "sentences", len(sentences), "model", c.gen.Model())
	raw, err := c.gen.Generate(ctx, llm.Request{System: systemPrompt, Prompt: prompt, JSON: true})
	if err != nil {
		c.log.Error("classifier call failed", "error", err)
		return esg.Grouped{}
	}

	findings, dropped, err := ParseFindings(raw)
	if err != nil {
		c.log.Error("classifier response rejected", "error", err)
		return esg.Grouped{}
	}
	if dropped > 0 {
		c.log.Warn("classifier items failed validation", "dropped", dropped)
	}
	c.log.Info("classification complete", "mentions", findings.Mentions())
	return findings
}

const (
	DefinitionDisabled = "Definition feature disabled: API key not configured."
	DefinitionError    = "Error fetching definition."
	DefinitionNotFound = "Could not find a definition."
)

// Definer returns short explanations of initiative names.
type Definer struct {
	gen llm.Generator
	log *slog.Logger
}

// NewDefiner returns a Definer. A nil generator disables definitions.
func NewDefiner(gen llm.Generator, log *slog.Logger) *Definer {
	if log == nil {
		log = slog.Default()
	}
	return &Definer{gen: gen, log: log}
}

// Define always returns displayable text; failures map to fixed messages.
func (d *Definer) Define(ctx context.Context, name string) string {
	if d.gen == nil {
		return DefinitionDisabled
	}
	d.log.Info("fetching definition", "name", name)
	out, err := d.gen.Generate(ctx, llm.Request{Prompt: DefinitionPrompt(name), MaxTokens: 256})
	if err != nil {
		d.log.Error("definition call failed", "name", name, "error", err)
		return DefinitionError
	}
	if out = strings.TrimSpace(out); out == "" {
		return DefinitionNotFound
	}
	return out
}
