package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/esglens/internal/document"
)

const systemPrompt = `You are an expert ESG analyst. Your task is to analyze a pre-filtered list of sentences from a sustainability report and extract all specific ESG initiatives.`

const instructions = `For each piece of evidence you find, you must provide:
1. The official name of the initiative (e.g., "Global Reporting Initiative (GRI)").
2. The exact page number where it was found (from the JSON input).
3. The category it belongs to from the official list below.
4. The full sentence that serves as evidence (from the JSON input).`

const responseRules = `Respond ONLY with a JSON array of objects. Each object must have four keys: "initiative", "category", "page", and "evidence_sentence".
If you find nothing in the text, respond with an empty array [].
Do not include any other text, explanations, or markdown formatting.`

// BuildPrompt embeds the category list and the candidate sentences.
func BuildPrompt(categories []string, sentences []document.Sentence) (string, error) {
	cats, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal categories: %w", err)
	}
	list, err := json.MarshalIndent(sentences, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sentences: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nOfficial Categories:\n")
	sb.Write(cats)
	sb.WriteString("\n\nAnalyze ONLY the following JSON list of sentences:\n--- SENTENCE LIST START ---\n")
	sb.Write(list)
	sb.WriteString("\n--- SENTENCE LIST END ---\n\n")
	sb.WriteString(responseRules)
	return sb.String(), nil
}

// DefinitionPrompt asks for a one-sentence explanation of an initiative.
func DefinitionPrompt(name string) string {
	return fmt.Sprintf("In one concise sentence, explain what the '%s' is in the context of ESG and sustainability.", name)
}
