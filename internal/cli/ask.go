package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
)

var (
	askQuery   string
	askTopK    int
	askJSON    bool
	askSource  string
	askFilters []string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question against the indexed corpus",
	Long: `Retrieve the passages most similar to the question and generate an
answer grounded in them, with source citations.

Filters restrict retrieval to matching passages and take the form
field:op:value, where field is "source" or "ordinal" and op is one of
eq, ne, gt, gte, lt, lte, in. For "in", values are comma separated.

Examples:
  docqa ask -q "what color is the sky"
  docqa ask -q "release steps" --source docs/release.md
  docqa ask -q "setup" --filter ordinal:lt:3 --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to answer (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().StringVar(&askSource, "source", "", "restrict retrieval to one document id")
	askCmd.Flags().StringArrayVar(&askFilters, "filter", nil, "metadata filter field:op:value (repeatable)")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if askTopK > 0 {
		cfg.Retrieve.TopK = askTopK
	}

	filter, err := parseFilters(askSource, askFilters)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.pipeline.Ask(cmd.Context(), askQuery, filter)
	if err != nil && !errors.Is(err, domain.ErrEmptyCorpus) {
		return err
	}
	degraded := errors.Is(err, domain.ErrEmptyCorpus)

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Text)
	if degraded {
		fmt.Println("\nNo index found. Run 'docqa build' first.")
		return nil
	}
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range answer.Sources {
			fmt.Printf("  [%d] %s#%d (score: %.2f)\n", i+1, src.Source, src.Ordinal, src.Score)
		}
	}
	return nil
}

// parseFilters merges the --source shortcut and the --filter specs into a
// single conjunction.
func parseFilters(source string, specs []string) (*domain.Filter, error) {
	var conditions []domain.Condition
	if source != "" {
		conditions = append(conditions, domain.Condition{
			Field: domain.FieldSource,
			Op:    domain.OpEq,
			Value: source,
		})
	}

	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid filter %q, want field:op:value", spec)
		}
		field, op, value := parts[0], domain.FilterOp(parts[1]), parts[2]
		if field != domain.FieldSource && field != domain.FieldOrdinal {
			return nil, fmt.Errorf("unknown filter field %q", field)
		}
		switch op {
		case domain.OpEq, domain.OpNe, domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
			conditions = append(conditions, domain.Condition{Field: field, Op: op, Value: value})
		case domain.OpIn:
			conditions = append(conditions, domain.Condition{Field: field, Op: op, Values: strings.Split(value, ",")})
		default:
			return nil, fmt.Errorf("unknown filter operator %q", op)
		}
	}

	if len(conditions) == 0 {
		return nil, nil
	}
	return &domain.Filter{Conditions: conditions}, nil
}
