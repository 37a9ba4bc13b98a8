package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/uartwatch/internal/hub"
	"github.com/atikulmunna/uartwatch/internal/logger"
	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/tailer"
)

var classifySummary bool

var classifyCmd = &cobra.Command{
	Use:   "classify [capture]",
	Short: "Classify a console capture with the configured levels",
	Long: `Run a captured console log (or stdin) through line assembly and the
configured level rules, and print every line with the level it gets. Useful
when tuning include and exclude patterns.

Examples:
  uartwatch classify minicom.cap
  uartwatch classify minicom.cap --level warn --summary
  dmesg | uartwatch classify -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifySummary, "summary", false, "print per-level counts to stderr when done")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return err
	}
	renderer, err := newRenderer(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var (
		src  io.Reader = cmd.InOrStdin()
		name           = "stdin"
	)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer f.Close()
		src, name = f, args[0]
	}

	log := logger.Get()
	t := tailer.New(src, name, log)
	h := hub.New(t.Chunks(), classifier, log)

	counts := make(map[string]int)
	h.AddSink(func(e model.LogEntry) {
		counts[e.Level]++
		if err := renderer.Render(e); err != nil {
			log.WithError(err).Debug("render error")
		}
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	errCh := make(chan error, 1)
	go func() { errCh <- t.Start(ctx) }()
	h.Start(ctx)
	if err := <-errCh; err != nil {
		return err
	}

	if classifySummary {
		printSummary(cmd.ErrOrStderr(), classifier.Levels(), counts)
	}
	return nil
}

func printSummary(w io.Writer, levels []string, counts map[string]int) {
	seen := make(map[string]bool, len(levels))
	for _, lvl := range levels {
		if seen[lvl] {
			continue
		}
		seen[lvl] = true
		fmt.Fprintf(w, "%-8s %d\n", lvl, counts[lvl])
	}
}
