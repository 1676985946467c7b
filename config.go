package bytebpe

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/euforicio/bytebpe/tokenizer"
)

// DefaultNumChunks is the number of corpus chunks planned when unset.
const DefaultNumChunks = 16

// ErrVocabSizeTooSmall is returned when the target is below the 256 byte
// tokens every vocabulary starts with.
var ErrVocabSizeTooSmall = errors.New("vocabulary size must be at least 256")

// TrainConfig configures Train.
type TrainConfig struct {
	// VocabSize is the target number of vocabulary entries, at least 256.
	VocabSize int `yaml:"vocab_size"`
	// SpecialTokens are added after the byte tokens, in order, and never
	// take part in merges.
	SpecialTokens []string `yaml:"special_tokens"`
	// NumChunks is how many ranges the corpus is split into for
	// pre-tokenization. Zero means DefaultNumChunks.
	NumChunks int `yaml:"num_chunks"`
	// Workers bounds concurrent pre-tokenization. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Strategy selects the merge engine. Empty means incremental.
	Strategy tokenizer.Strategy `yaml:"strategy"`
	// Pattern replaces the built-in GPT-2 segmenter with a regexp2 pattern.
	Pattern string `yaml:"pattern"`

	Logger *slog.Logger `yaml:"-"`
}

// Validate reports configuration errors without touching the corpus.
func (c TrainConfig) Validate() error {
	if c.VocabSize < tokenizer.NumBytes {
		return fmt.Errorf("%w: got %d", ErrVocabSizeTooSmall, c.VocabSize)
	}
	if c.NumChunks < 0 {
		return fmt.Errorf("%w: got %d", tokenizer.ErrInvalidChunks, c.NumChunks)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: got %d", c.Workers)
	}
	if _, err := tokenizer.ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.Pattern != "" {
		if _, err := tokenizer.NewRegexpSegmenter(c.Pattern); err != nil {
			return fmt.Errorf("pattern: %w", err)
		}
	}
	return nil
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.NumChunks == 0 {
		c.NumChunks = DefaultNumChunks
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	c.Strategy, _ = tokenizer.ParseStrategy(string(c.Strategy))
	return c
}

// segmenter returns the pre-token splitter for c.
func (c TrainConfig) segmenter() (tokenizer.Segmenter, error) {
	if c.Pattern == "" {
		return tokenizer.NewGPT2Segmenter(), nil
	}
	return tokenizer.NewRegexpSegmenter(c.Pattern)
}

// LoadConfig reads a YAML TrainConfig from path.
func LoadConfig(path string) (TrainConfig, error) {
	var c TrainConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}
