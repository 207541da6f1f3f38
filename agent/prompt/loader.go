package prompt

import (
	"embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/deptrouter/agent/contract"
	statex "github.com/tanpawarit/deptrouter/agent/state"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/persona/*.hbs
	personaFS embed.FS
)

// PromptSet holds the classifier instruction and one persona template per label.
type PromptSet struct {
	Classifier string
	Personas   map[statex.Label]string
}

// LoadPromptSet returns the embedded prompts, trimmed. It fails if any label
// lacks a persona.
func LoadPromptSet() (PromptSet, error) {
	set := PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		Personas:   make(map[statex.Label]string, len(statex.Labels)),
	}
	if set.Classifier == "" {
		return PromptSet{}, fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}

	for _, label := range statex.Labels {
		raw, err := personaFS.ReadFile("template/persona/" + string(label) + ".hbs")
		if err != nil {
			return PromptSet{}, fmt.Errorf("%w: persona=%s: %v", contractx.ErrPromptMissing, label, err)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return PromptSet{}, fmt.Errorf("%w: persona=%s is empty", contractx.ErrPromptMissing, label)
		}
		set.Personas[label] = text
	}
	return set, nil
}

func MustLoadPromptSet() PromptSet {
	set, err := LoadPromptSet()
	if err != nil {
		panic(err)
	}
	return set
}
