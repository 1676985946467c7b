package bytebpe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/euforicio/bytebpe/tokenizer"
)

// Model file names inside a model directory.
const (
	vocabFile  = "vocab.txt"
	mergesFile = "merges.txt"
	metaFile   = "model.yaml"
	jsonFile   = "model.json"
	cborFile   = "model.cbor"
	filePerm   = 0o644
	dirPerm    = 0o755
)

// Result is a trained model.
type Result struct {
	Vocab  *tokenizer.Vocabulary
	Merges []tokenizer.Merge
	// SpecialTokens lists the special tokens that made it into Vocab.
	SpecialTokens []string
	// Pattern is the custom pre-tokenization pattern, empty for GPT-2.
	Pattern string
}

// Encoder returns an encoder for the trained model using the same
// pre-tokenization as training.
func (r *Result) Encoder() (*tokenizer.Encoder, error) {
	seg := tokenizer.NewGPT2Segmenter()
	if r.Pattern != "" {
		var err error
		if seg, err = tokenizer.NewRegexpSegmenter(r.Pattern); err != nil {
			return nil, err
		}
	}
	return tokenizer.NewEncoder(r.Vocab, r.Merges, r.SpecialTokens, seg)
}

// Snapshot returns the model in serializable form.
func (r *Result) Snapshot() tokenizer.Snapshot {
	s := tokenizer.NewSnapshot(r.Vocab, r.Merges, r.SpecialTokens)
	s.Pattern = r.Pattern
	return s
}

type modelMeta struct {
	SpecialTokens []string `yaml:"special_tokens"`
	Pattern       string   `yaml:"pattern,omitempty"`
}

// Save writes the model into dir. FormatText writes vocab.txt, merges.txt
// and model.yaml; FormatJSON and FormatCBOR write a single snapshot file.
func (r *Result) Save(dir string, f tokenizer.Format) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	switch f {
	case tokenizer.FormatText, "":
		if err := writeFile(filepath.Join(dir, vocabFile), func(fh *os.File) error {
			return tokenizer.WriteVocab(fh, r.Vocab)
		}); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, mergesFile), func(fh *os.File) error {
			return tokenizer.WriteMerges(fh, r.Merges)
		}); err != nil {
			return err
		}
		meta, err := yaml.Marshal(modelMeta{SpecialTokens: r.SpecialTokens, Pattern: r.Pattern})
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, metaFile), meta, filePerm)
	case tokenizer.FormatJSON:
		return writeFile(filepath.Join(dir, jsonFile), func(fh *os.File) error {
			return r.Snapshot().Encode(fh, f)
		})
	case tokenizer.FormatCBOR:
		return writeFile(filepath.Join(dir, cborFile), func(fh *os.File) error {
			return r.Snapshot().Encode(fh, f)
		})
	default:
		return fmt.Errorf("%w: %q", tokenizer.ErrUnknownFormat, f)
	}
}

// LoadModel reads a model directory written by Result.Save, whichever
// format it used.
func LoadModel(dir string) (*Result, error) {
	for _, c := range []struct {
		name string
		f    tokenizer.Format
	}{{jsonFile, tokenizer.FormatJSON}, {cborFile, tokenizer.FormatCBOR}} {
		fh, err := os.Open(filepath.Join(dir, c.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}
		s, err := tokenizer.DecodeSnapshot(fh, c.f)
		_ = fh.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		vocab, merges := s.Model()
		return &Result{Vocab: vocab, Merges: merges, SpecialTokens: s.SpecialTokens, Pattern: s.Pattern}, nil
	}

	res := &Result{}
	if err := readFile(filepath.Join(dir, vocabFile), func(fh *os.File) (err error) {
		res.Vocab, err = tokenizer.ReadVocab(fh)
		return err
	}); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, mergesFile), func(fh *os.File) (err error) {
		res.Merges, err = tokenizer.ReadMerges(fh)
		return err
	}); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var meta modelMeta
	if err := yaml.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", metaFile, err)
	}
	res.SpecialTokens, res.Pattern = meta.SpecialTokens, meta.Pattern
	return res, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(fh); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func readFile(path string, fn func(*os.File) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()
	if err := fn(fh); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
