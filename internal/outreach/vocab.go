package outreach

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var vocabYAML []byte

// vocabulary holds the keyword sets driving bio signal detection. Matching
// precedence for services follows the list order in vocab.yaml.
type vocabulary struct {
	Online     []string       `yaml:"online"`
	Mexico     []string       `yaml:"mexico"`
	Individual []string       `yaml:"individual"`
	Center     []string       `yaml:"center"`
	Schedule   []string       `yaml:"schedule"`
	Services   []serviceEntry `yaml:"services"`
}

type serviceEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// vocab is parsed once at init; the file is embedded, so a parse failure is
// a build defect and panics.
var vocab = func() vocabulary {
	var v vocabulary
	if err := yaml.Unmarshal(vocabYAML, &v); err != nil {
		panic("outreach: parse vocab.yaml: " + err.Error())
	}
	return v
}()
