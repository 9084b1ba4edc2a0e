package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed prompts.toml
var defaultPrompts []byte

// Prompt is a system/user template pair. User contains a single %s verb for
// the stage input.
type Prompt struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

// Render returns the user message for input.
func (p Prompt) Render(input string) string {
	return fmt.Sprintf(p.User, input)
}

// Prompts holds the enrichment prompt templates.
type Prompts struct {
	Rewrite Prompt `toml:"rewrite"`
	Title   Prompt `toml:"title"`
	Summary Prompt `toml:"summary"`
}

// LoadPrompts parses the prompt file at path, or the embedded defaults when
// path is empty.
func LoadPrompts(path string) (*Prompts, error) {
	data := defaultPrompts
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts file: %w", err)
		}
	}

	var p Prompts
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}
	for name, prompt := range map[string]Prompt{"rewrite": p.Rewrite, "title": p.Title, "summary": p.Summary} {
		if strings.TrimSpace(prompt.User) == "" {
			return nil, fmt.Errorf("prompt %s: user template is empty", name)
		}
		if strings.Count(prompt.User, "%s") != 1 {
			return nil, fmt.Errorf("prompt %s: user template must contain exactly one %%s", name)
		}
	}
	return &p, nil
}
