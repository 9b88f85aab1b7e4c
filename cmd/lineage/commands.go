package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/lineage/internal/core/community"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/core/store"
	"github.com/agenthands/lineage/internal/logger"
)

var errViolations = errors.New("snapshot has invalid relationships")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lineage",
		Short: "Inspect family tree snapshots",
		Long: `lineage checks, lays out and groups the members of an exported
family tree snapshot without starting the server.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newCheckCmd(), newLayoutCmd(), newComponentsCmd(), newValidateCmd())
	return rootCmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [snapshot.json]",
		Short: "Report relationships that break the family forest",
		Long:  `Replays every relationship in order and lists the ones a live tree would have refused. Exits non-zero if there are any.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSnapshot(cmd, args[0])
			if err != nil {
				return err
			}
			st := store.New(store.WithImportPolicy(store.ImportPrune))
			report, err := st.ImportJSON(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d members, %d relationships accepted\n", len(st.Persons()), len(report.Accepted))
			for _, v := range report.Violations {
				fmt.Fprintf(out, "  %s %s %s -> %s: %s\n", v.Relationship.ID, v.Relationship.Type, v.Relationship.From, v.Relationship.To, v.Reason)
			}
			if !report.OK() {
				return fmt.Errorf("%w: %d", errViolations, len(report.Violations))
			}
			return nil
		},
	}
}

func newLayoutCmd() *cobra.Command {
	var (
		nodeSpacing       float64
		generationSpacing float64
		policy            string
	)
	cmd := &cobra.Command{
		Use:   "layout [snapshot.json]",
		Short: "Print member coordinates as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := store.ImportPolicy(policy)
			if !p.Valid() {
				return fmt.Errorf("unknown policy %q", policy)
			}
			st, err := loadStore(cmd, args[0], store.WithImportPolicy(p))
			if err != nil {
				return err
			}
			if _, err := st.UpdateSettings(model.SettingsPatch{
				NodeSpacing:       &nodeSpacing,
				GenerationSpacing: &generationSpacing,
			}); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st.Layout())
		},
	}
	defaults := model.DefaultSettings()
	cmd.Flags().Float64Var(&nodeSpacing, "node-spacing", defaults.NodeSpacing, "horizontal distance between siblings")
	cmd.Flags().Float64Var(&generationSpacing, "generation-spacing", defaults.GenerationSpacing, "vertical distance between generations")
	cmd.Flags().StringVar(&policy, "policy", string(store.ImportPrune), "how to treat invalid relationships: reject, prune or trust")
	return cmd
}

func newComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components [snapshot.json]",
		Short: "List disconnected families",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadStore(cmd, args[0], store.WithImportPolicy(store.ImportPrune))
			if err != nil {
				return err
			}
			families := community.Detect(st.Persons(), st.Relationships())
			out := cmd.OutOrStdout()
			for i, family := range families {
				fmt.Fprintf(out, "family %d (%d members)\n", i+1, len(family))
				for _, p := range family {
					fmt.Fprintf(out, "  %s %s\n", p.ID, p.Name)
				}
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	var relType string
	cmd := &cobra.Command{
		Use:   "validate [snapshot.json] [from-id] [to-id]",
		Short: "Check whether a new relationship would be accepted",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.RelationType(relType)
			if !t.Valid() {
				return fmt.Errorf("unknown relationship type %q", relType)
			}
			st, err := loadStore(cmd, args[0], store.WithImportPolicy(store.ImportPrune))
			if err != nil {
				return err
			}
			res := st.Validate(model.Candidate{Type: t, From: args[1], To: args[2]})
			if !res.Valid {
				return errors.New(string(res.Reason))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVarP(&relType, "type", "t", string(model.ParentChild), "parent-child, spouse or sibling")
	return cmd
}

// readSnapshot reads path, or standard input when path is "-".
func readSnapshot(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func loadStore(cmd *cobra.Command, path string, opts ...store.Option) (*store.Store, error) {
	data, err := readSnapshot(cmd, path)
	if err != nil {
		return nil, err
	}
	st := store.New(opts...)
	report, err := st.ImportJSON(data)
	if err != nil {
		return nil, err
	}
	if !report.OK() {
		logger.Warn("dropped invalid relationships", "count", len(report.Violations))
	}
	return st, nil
}
