package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"wordchain/internal/puzzle"
)

const defaultModel = "gemini-2.5-flash"

// Gemini asks the Gemini API for puzzle candidates. It is just a Producer;
// retries, validation, and escalation all live in the Pipeline.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("generator api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Produce(ctx context.Context, difficulty puzzle.Difficulty, banned puzzle.BannedSet) (puzzle.Candidate, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(buildPrompt(difficulty, banned)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return puzzle.Candidate{}, fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return puzzle.Candidate{}, errors.New("empty model response")
	}
	return ParseCandidate([]byte(text))
}

// buildPrompt embeds the banned context so the model avoids recent material
// up front instead of burning validation attempts on it.
func buildPrompt(difficulty puzzle.Difficulty, banned puzzle.BannedSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Create a word chain puzzle of difficulty %q.

A word chain is 8 single Title Case words where each adjacent pair forms a
well-known compound word or two-word phrase. Also produce 10 single-word
distractors that fit the theme but never complete an alternate chain, and
the 7 link strings (lowercase, either the fused compound like "keychain" or
the spaced phrase like "key chain", never hyphenated).

Respond with JSON only, exactly this schema:
{"chain":[8 words],"dummy":[10 words],"links":[7 strings],"difficulty":%q}
`, difficulty, difficulty)

	if len(banned.Links) > 0 {
		fmt.Fprintf(&b, "\nDo not use any of these links: %s\n", joinSorted(banned.Links))
	}
	if len(banned.Endpoints) > 0 {
		fmt.Fprintf(&b, "\nDo not start or end the chain with: %s\n", joinSorted(banned.Endpoints))
	}
	if sample := banned.WordSample(); len(sample) > 0 {
		fmt.Fprintf(&b, "\nPrefer to avoid these recently used words: %s\n", strings.Join(sample, ", "))
	}
	return b.String()
}

func joinSorted(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for s := range set {
		items = append(items, s)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}
