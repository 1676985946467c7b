package tokenizer

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format selects a serialization for Snapshot.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ErrUnknownFormat is returned for an unrecognised Format.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat parses a format name; empty selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// WriteVocab writes one line per id: base64(bytes) + space + id.
func WriteVocab(w io.Writer, v *Vocabulary) error {
	bw := bufio.NewWriter(w)
	for id, t := range v.Tokens() {
		if _, err := fmt.Fprintf(bw, "%s %d\n", base64.StdEncoding.EncodeToString(t), id); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadVocab reads the WriteVocab format. Ids must be dense and ascending.
func ReadVocab(r io.Reader) (*Vocabulary, error) {
	var tokens [][]byte
	err := readLines(r, func(lineNo int, line string) error {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return fmt.Errorf("invalid vocab at line %d", lineNo)
		}
		tok, err := base64.StdEncoding.DecodeString(line[:sp])
		if err != nil {
			return fmt.Errorf("b64 decode line %d: %w", lineNo, err)
		}
		// use strconv to avoid fmt scanning allocations
		id, err := strconv.ParseUint(line[sp+1:], 10, 32)
		if err != nil {
			return fmt.Errorf("rank parse line %d: %w", lineNo, err)
		}
		if int(id) != len(tokens) {
			return fmt.Errorf("vocab line %d: id %d out of order, want %d", lineNo, id, len(tokens))
		}
		tokens = append(tokens, tok)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return VocabularyFromTokens(tokens), nil
}

// WriteMerges writes one merge per line: base64(left) + space + base64(right).
func WriteMerges(w io.Writer, merges []Merge) error {
	bw := bufio.NewWriter(w)
	for _, m := range merges {
		_, err := fmt.Fprintf(bw, "%s %s\n",
			base64.StdEncoding.EncodeToString(m.Left),
			base64.StdEncoding.EncodeToString(m.Right))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadMerges reads the WriteMerges format, preserving order.
func ReadMerges(r io.Reader) ([]Merge, error) {
	var merges []Merge
	err := readLines(r, func(lineNo int, line string) error {
		left, right, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("invalid merge at line %d", lineNo)
		}
		l, err := base64.StdEncoding.DecodeString(left)
		if err != nil {
			return fmt.Errorf("b64 decode line %d: %w", lineNo, err)
		}
		rt, err := base64.StdEncoding.DecodeString(right)
		if err != nil {
			return fmt.Errorf("b64 decode line %d: %w", lineNo, err)
		}
		merges = append(merges, Merge{Left: l, Right: rt})
		return nil
	})
	return merges, err
}

func readLines(r io.Reader, fn func(lineNo int, line string) error) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, e := br.ReadString('\n')
		if e != nil && !errors.Is(e, io.EOF) {
			return e
		}
		if line == "" && errors.Is(e, io.EOF) {
			return nil
		}
		lineNo++
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if err := fn(lineNo, line); err != nil {
				return err
			}
		}
		if errors.Is(e, io.EOF) {
			return nil
		}
	}
}

// Snapshot is a trained model in a self-describing form.
type Snapshot struct {
	Vocab         [][]byte    `json:"vocab" cbor:"1,keyasint"`
	Merges        [][2][]byte `json:"merges" cbor:"2,keyasint"`
	SpecialTokens []string    `json:"special_tokens" cbor:"3,keyasint"`
	Pattern       string      `json:"pattern,omitempty" cbor:"4,keyasint,omitempty"`
}

// NewSnapshot captures vocab, merges and the special tokens present in vocab.
func NewSnapshot(v *Vocabulary, merges []Merge, specials []string) Snapshot {
	s := Snapshot{Vocab: v.Tokens(), SpecialTokens: specials}
	s.Merges = make([][2][]byte, len(merges))
	for i, m := range merges {
		s.Merges[i] = [2][]byte{m.Left, m.Right}
	}
	return s
}

// Model returns the vocabulary and merges held by s.
func (s Snapshot) Model() (*Vocabulary, []Merge) {
	merges := make([]Merge, len(s.Merges))
	for i, m := range s.Merges {
		merges[i] = Merge{Left: m[0], Right: m[1]}
	}
	return VocabularyFromTokens(s.Vocab), merges
}

// Encode writes s as JSON or CBOR.
func (s Snapshot) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatCBOR:
		return cbor.NewEncoder(w).Encode(s)
	default:
		return fmt.Errorf("%w: snapshot cannot use %q", ErrUnknownFormat, f)
	}
}

// DecodeSnapshot reads a snapshot written by Snapshot.Encode.
func DecodeSnapshot(r io.Reader, f Format) (Snapshot, error) {
	var s Snapshot
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&s)
	case FormatCBOR:
		err = cbor.NewDecoder(r).Decode(&s)
	default:
		err = fmt.Errorf("%w: snapshot cannot use %q", ErrUnknownFormat, f)
	}
	return s, err
}
