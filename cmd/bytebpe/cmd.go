package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/euforicio/bytebpe"
	"github.com/euforicio/bytebpe/internal/envconfig"
	"github.com/euforicio/bytebpe/internal/logutil"
	"github.com/euforicio/bytebpe/tokenizer"
)

const readChunk = 64 << 10

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bytebpe",
		Short: "Byte-level BPE vocabulary trainer",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}

	cobra.EnableCommandSorting = false

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Learn a vocabulary and merge list from a corpus",
		Args:  cobra.NoArgs,
		RunE:  trainHandler,
	}
	trainCmd.Flags().StringP("input", "i", "", "Corpus file to train on")
	trainCmd.Flags().IntP("vocab-size", "n", 0, "Target vocabulary size (at least 256)")
	trainCmd.Flags().StringArrayP("special", "s", nil, "Special token, repeatable; order sets ids")
	trainCmd.Flags().Int("chunks", 0, "Number of corpus chunks (env BYTEBPE_NUM_CHUNKS, default 16)")
	trainCmd.Flags().Int("workers", 0, "Concurrent pre-tokenization workers (env BYTEBPE_WORKERS)")
	trainCmd.Flags().String("strategy", "", "Merge engine: incremental or naive (env BYTEBPE_STRATEGY)")
	trainCmd.Flags().String("pattern", "", "Pre-tokenization regexp replacing the GPT-2 pattern")
	trainCmd.Flags().StringP("out", "o", "model", "Directory to write the model into")
	trainCmd.Flags().StringP("format", "f", "text", "Model format: text, json or cbor")
	trainCmd.Flags().StringP("config", "c", "", "YAML training config; flags and env take precedence")
	trainCmd.Flags().CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	_ = trainCmd.MarkFlagRequired("input")

	envVars := envconfig.AsMap()
	appendEnvDocs(trainCmd, []envconfig.EnvVar{
		envVars["BYTEBPE_NUM_CHUNKS"],
		envVars["BYTEBPE_WORKERS"],
		envVars["BYTEBPE_STRATEGY"],
		envVars["BYTEBPE_DEBUG"],
	})

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode text from stdin to JSON token ids",
		Args:  cobra.NoArgs,
		RunE:  encodeHandler,
	}
	encodeCmd.Flags().StringP("model", "m", "model", "Model directory written by train")

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode JSON token ids from stdin to text",
		Args:  cobra.NoArgs,
		RunE:  decodeHandler,
	}
	decodeCmd.Flags().StringP("model", "m", "model", "Model directory written by train")

	rootCmd.AddCommand(
		trainCmd,
		encodeCmd,
		decodeCmd,
	)

	return rootCmd
}

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

func trainHandler(cmd *cobra.Command, args []string) error {
	cfg, err := trainConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	f, err := tokenizer.ParseFormat(format)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("out")

	res, err := bytebpe.TrainFile(cmd.Context(), input, cfg)
	if err != nil {
		return err
	}
	if err := res.Save(out, f); err != nil {
		return err
	}
	cfg.Logger.Info("model saved", "dir", out, "format", f, "vocab_size", res.Vocab.Len(), "merges", len(res.Merges))
	return nil
}

// trainConfig layers flags over environment over the config file.
func trainConfig(cmd *cobra.Command) (bytebpe.TrainConfig, error) {
	var cfg bytebpe.TrainConfig
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = bytebpe.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if envconfig.IsSet("BYTEBPE_NUM_CHUNKS") {
		cfg.NumChunks = envconfig.NumChunks()
	}
	if envconfig.IsSet("BYTEBPE_WORKERS") {
		cfg.Workers = envconfig.Workers()
	}
	if s := envconfig.Strategy(); s != "" {
		cfg.Strategy = tokenizer.Strategy(s)
	}

	flags := cmd.Flags()
	if flags.Changed("vocab-size") {
		cfg.VocabSize, _ = flags.GetInt("vocab-size")
	}
	if flags.Changed("special") {
		cfg.SpecialTokens, _ = flags.GetStringArray("special")
	}
	if flags.Changed("chunks") {
		cfg.NumChunks, _ = flags.GetInt("chunks")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("strategy") {
		s, _ := flags.GetString("strategy")
		cfg.Strategy = tokenizer.Strategy(s)
	}
	if flags.Changed("pattern") {
		cfg.Pattern, _ = flags.GetString("pattern")
	}

	level := envconfig.Debug()
	switch v, _ := flags.GetCount("verbose"); {
	case v >= 2:
		level = logutil.LevelTrace
	case v == 1:
		level = min(level, slog.LevelDebug)
	}
	cfg.Logger = logutil.NewLogger(cmd.ErrOrStderr(), level)
	cfg.Logger.Debug("train config", "env", envconfig.Values())
	return cfg, cfg.Validate()
}

func loadEncoder(cmd *cobra.Command) (*tokenizer.Encoder, error) {
	dir, _ := cmd.Flags().GetString("model")
	res, err := bytebpe.LoadModel(dir)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", dir, err)
	}
	return res.Encoder()
}

func encodeHandler(cmd *cobra.Command, args []string) error {
	enc, err := loadEncoder(cmd)
	if err != nil {
		return err
	}
	var readErr error
	ids := []uint32{}
	for id := range enc.EncodeSeq(readChunks(cmd.InOrStdin(), &readErr)) {
		ids = append(ids, id)
	}
	if readErr != nil {
		return readErr
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(ids)
}

// readChunks yields r in fixed-size pieces. The first read error other than
// io.EOF is stored in errp and ends the sequence.
func readChunks(r io.Reader, errp *error) iter.Seq[string] {
	return func(yield func(string) bool) {
		br := bufio.NewReaderSize(r, readChunk)
		buf := make([]byte, readChunk)
		for {
			n, err := br.Read(buf)
			if n > 0 && !yield(string(buf[:n])) {
				return
			}
			if errors.Is(err, io.EOF) {
				return
			} else if err != nil {
				*errp = err
				return
			}
		}
	}
}

func decodeHandler(cmd *cobra.Command, args []string) error {
	enc, err := loadEncoder(cmd)
	if err != nil {
		return err
	}
	var ids []uint32
	if err := json.NewDecoder(cmd.InOrStdin()).Decode(&ids); err != nil {
		return fmt.Errorf("read token ids: %w", err)
	}
	b, err := enc.DecodeBytes(ids)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
