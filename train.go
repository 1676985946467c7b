package bytebpe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/euforicio/bytebpe/internal/logutil"
	"github.com/euforicio/bytebpe/tokenizer"
)

// TrainFile trains on the file at path. The configuration is validated
// before the file is opened.
func TrainFile(ctx context.Context, path string, cfg TrainConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Train(ctx, f, fi.Size(), cfg)
}

// Train learns a vocabulary and merge list from the size bytes of r.
//
// The vocabulary is seeded with the 256 byte tokens and the special tokens;
// if that already reaches cfg.VocabSize the corpus is not read. Otherwise
// chunks are pre-tokenized concurrently and merges are learned until the
// target size is reached or no adjacent pair remains. Running out of pairs
// is not an error: the result is simply smaller than requested.
func Train(ctx context.Context, r io.ReaderAt, size int64, cfg TrainConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	logger := logutil.OrDiscard(cfg.Logger)
	seg, err := cfg.segmenter()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	vocab, added := tokenizer.NewVocabulary(cfg.VocabSize, cfg.SpecialTokens)
	res := &Result{
		Vocab:         vocab,
		SpecialTokens: slices.Clone(cfg.SpecialTokens[:added]),
		Pattern:       cfg.Pattern,
	}
	if vocab.Full(cfg.VocabSize) {
		logger.Info("vocabulary full after seeding", "vocab_size", vocab.Len(), "special_tokens", added)
		return res, nil
	}

	pre := tokenizer.NewPretokenizer(cfg.SpecialTokens, seg)
	counts, err := countChunks(ctx, r, size, pre, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("pre-tokenized corpus", "bytes", size, "pretokens", counts.Total(), "distinct", len(counts), "elapsed", time.Since(start))

	engine, err := tokenizer.NewMergeEngine(cfg.Strategy, counts)
	if err != nil {
		return nil, err
	}
	for !vocab.Full(cfg.VocabSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, freq, ok := engine.Step()
		if !ok {
			logger.Info("no pairs left to merge", "vocab_size", vocab.Len(), "target", cfg.VocabSize)
			break
		}
		id := vocab.Add(m.Token())
		res.Merges = append(res.Merges, m)
		logutil.Trace(logger, "merge", "id", id, "pair", m, "count", freq)
	}

	logger.Info("training complete", "vocab_size", vocab.Len(), "merges", len(res.Merges), "strategy", cfg.Strategy, "elapsed", time.Since(start))
	return res, nil
}

// countChunks splits the corpus at special-token boundaries and
// pre-tokenizes every chunk on a bounded worker pool. Each worker reads only
// its own range and fills its own table; the tables are summed afterwards.
func countChunks(ctx context.Context, r io.ReaderAt, size int64, pre *tokenizer.Pretokenizer, cfg TrainConfig, logger *slog.Logger) (tokenizer.Counts, error) {
	specials := make([][]byte, 0, len(cfg.SpecialTokens))
	for _, s := range cfg.SpecialTokens {
		if s != "" {
			specials = append(specials, []byte(s))
		}
	}
	bounds, err := tokenizer.FindChunkBoundaries(r, size, specials, cfg.NumChunks)
	if err != nil {
		return nil, err
	}
	logger.Debug("planned chunks", "bounds", bounds, "workers", cfg.Workers)

	partial := make([]tokenizer.Counts, max(len(bounds)-1, 0))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range partial {
		from, to := bounds[i], bounds[i+1]
		if from == to {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logutil.TraceContext(gctx, logger, "reading chunk", "chunk", i, "bytes", to-from)
			buf := make([]byte, to-from)
			if _, err := io.ReadFull(io.NewSectionReader(r, from, to-from), buf); err != nil {
				return fmt.Errorf("read chunk %d [%d, %d): %w", i, from, to, err)
			}
			partial[i] = pre.Count(tokenizer.ValidText(buf))
			logger.Debug("chunk counted", "chunk", i, "start", from, "end", to, "distinct", len(partial[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The group may have stopped scheduling without any worker failing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tokenizer.Accumulate(partial...), nil
}
