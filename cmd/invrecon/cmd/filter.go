package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinnienasta1/ProITech-pub/internal/filter"
)

var filterWhere []string

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Select catalog records by field predicates and load them into the buffer",
	Long: `Evaluate a clause sequence over the full catalog and add the matching
serials to the working buffer. Each --where flag is one clause:

    --where 'Статус=В работе'
    --where 'or:Департамент~Склад'

The part before the operator is a display field name. Operators are
= (equals), != (not equals), ~ (contains) and !~ (not contains). An
"or:" prefix joins the clause with OR instead of AND; clauses apply
strictly left to right with no precedence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(filterWhere) == 0 {
			return fmt.Errorf("at least one --where clause is required")
		}
		clauses, err := parseClauses(filterWhere)
		if err != nil {
			return err
		}
		if err := application.Filter.Validate(clauses); err != nil {
			return err
		}
		records := application.Catalog(cmd.Context())
		serials := application.Filter.Evaluate(records, clauses)
		fmt.Printf("matched %d serials\n", len(serials))
		if err := addAndWait(cmd.Context(), serials); err != nil {
			return err
		}
		printEntries()
		return nil
	},
}

func init() {
	filterCmd.Flags().StringArrayVarP(&filterWhere, "where", "w", nil, "clause, e.g. 'Статус=В работе' or 'or:Департамент~Склад'")
	rootCmd.AddCommand(filterCmd)
}

// operator tokens ordered longest first so "!=" is not read as "=".
var clauseOps = []struct {
	token string
	op    filter.Operator
}{
	{"!~", filter.OpNotContains},
	{"!=", filter.OpNotEquals},
	{"~", filter.OpContains},
	{"=", filter.OpEquals},
}

func parseClauses(raw []string) ([]filter.Clause, error) {
	clauses := make([]filter.Clause, 0, len(raw))
	for _, spec := range raw {
		logic := filter.LogicAnd
		if rest, ok := strings.CutPrefix(spec, "or:"); ok {
			logic = filter.LogicOr
			spec = rest
		}
		var clause *filter.Clause
		for _, cand := range clauseOps {
			field, value, ok := strings.Cut(spec, cand.token)
			if !ok || field == "" {
				continue
			}
			clause = &filter.Clause{
				Logic:    logic,
				Field:    strings.TrimSpace(field),
				Operator: cand.op,
				Value:    strings.TrimSpace(value),
			}
			break
		}
		if clause == nil {
			return nil, fmt.Errorf("cannot parse clause %q: expected field=value, field!=value, field~value or field!~value", spec)
		}
		clauses = append(clauses, *clause)
	}
	return clauses, nil
}
