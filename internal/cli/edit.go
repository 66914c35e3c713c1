package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matthewsawatzky/themekit/internal/db"
	"github.com/matthewsawatzky/themekit/internal/editor"
	"github.com/matthewsawatzky/themekit/internal/props"
)

// editEnv is an env with the store open and a workspace over it.
type editEnv struct {
	*env
	store     *db.Store
	workspace *editor.Workspace
}

func openEditEnv(cmd *cobra.Command, state *rootState) (*editEnv, error) {
	e, err := openEnv(cmd, state)
	if err != nil {
		return nil, err
	}
	store, err := e.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	return &editEnv{env: e, store: store, workspace: editor.NewWorkspace(e.reg, store, e.logger)}, nil
}

func (e *editEnv) Close() error { return e.store.Close() }

// session opens the session editing theme's family.
func (e *editEnv) session(ctx context.Context, name string) (*editor.Session, error) {
	d, err := e.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.workspace.Open(ctx, d)
}

// withSession runs fn on the session for args[0] and saves it afterwards.
func withSession(state *rootState, fn func(cmd *cobra.Command, e *editEnv, s *editor.Session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEditEnv(cmd, state)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()
		s, err := e.session(ctx, args[0])
		if err != nil {
			return err
		}
		if err := fn(cmd, e, s, args); err != nil {
			return err
		}
		return e.workspace.Save(ctx, s)
	}
}

func buildEditCommands(state *rootState) *cobra.Command {
	editCmd := &cobra.Command{Use: "edit", Short: "Edit themes in persistent per-family sessions"}

	var dark, highContrast bool
	newCmd := &cobra.Command{
		Use:   "new <theme>",
		Short: "Start or resume the session for a theme's family",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(state, func(cmd *cobra.Command, e *editEnv, s *editor.Session, args []string) error {
			if cmd.Flags().Changed("dark") {
				s.SetDark(dark)
			}
			if cmd.Flags().Changed("high-contrast") {
				s.SetHighContrast(highContrast)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s (family %s, base %s)\n", s.ID(), s.Family(), s.Base().Name)
			return nil
		}),
	}
	newCmd.Flags().BoolVar(&dark, "dark", false, "set the dark toggle")
	newCmd.Flags().BoolVar(&highContrast, "high-contrast", false, "set the high-contrast toggle")

	setCmd := &cobra.Command{
		Use:   "set <theme> <layer> <key> <value>",
		Short: "Set a key in an edit layer (theme|icons|ui|globals|platform)",
		Args:  cobra.ExactArgs(4),
		RunE: withSession(state, func(cmd *cobra.Command, e *editEnv, s *editor.Session, args []string) error {
			l, err := editor.ParseLayer(args[1])
			if err != nil {
				return err
			}
			return s.Set(l, args[2], args[3])
		}),
	}

	unsetCmd := &cobra.Command{
		Use:   "unset <theme> <layer> <key>",
		Short: "Remove a key from an edit layer",
		Args:  cobra.ExactArgs(3),
		RunE: withSession(state, func(cmd *cobra.Command, e *editEnv, s *editor.Session, args []string) error {
			l, err := editor.ParseLayer(args[1])
			if err != nil {
				return err
			}
			if !s.Unset(l, args[2]) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s not set in layer %s\n", args[2], l)
			}
			return nil
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show <theme>",
		Short: "Print a session's edit layers",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(state, func(cmd *cobra.Command, e *editEnv, s *editor.Session, args []string) error {
			writeSession(cmd.OutOrStdout(), s)
			return nil
		}),
	}

	applyCmd := &cobra.Command{
		Use:   "apply <theme>",
		Short: "Build and install the edited theme",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(state, func(cmd *cobra.Command, e *editEnv, s *editor.Session, args []string) error {
			res, err := e.workspace.Apply(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s: %d defaults, palette %s\n", s.Family(), res.Defaults.Len(), res.Key.Digest())
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditEnv(cmd, state)
			if err != nil {
				return err
			}
			defer e.Close()
			sessions, err := e.store.ListEditorSessions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFAMILY\tBASE\tDARK\tHIGH CONTRAST\tUPDATED\t")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\t%s\t\n", s.ID, s.Family, s.Base, s.Dark, s.HighContrast, humanize.Time(s.UpdatedAt))
			}
			return tw.Flush()
		},
	}

	discardCmd := &cobra.Command{
		Use:   "discard <theme>",
		Short: "Delete the session for a theme's family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEditEnv(cmd, state)
			if err != nil {
				return err
			}
			defer e.Close()
			s, err := e.session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.workspace.Close(cmd.Context(), s, true)
		},
	}

	editCmd.AddCommand(newCmd, setCmd, unsetCmd, showCmd, applyCmd, listCmd, discardCmd)
	return editCmd
}

func writeSession(w io.Writer, s *editor.Session) {
	color := isTerminal(w)
	fmt.Fprintf(w, "session %s\nfamily: %s\nbase: %s\ndark: %v\nhigh contrast: %v\n",
		s.ID(), s.Family(), s.Base().Name, s.Dark(), s.HighContrast())
	for _, l := range editor.Layers {
		b := s.Layer(l)
		fmt.Fprintf(w, "\n[%s] %d keys\n", l, b.Len())
		b.Each(func(key string, v props.RawValue) {
			if c, ok := v.Scalar().Color(); ok && !v.IsRef() && color {
				fmt.Fprintf(w, "  %s %s = %s\n", swatch(c), key, v)
				return
			}
			fmt.Fprintf(w, "  %s = %s\n", key, v)
		})
	}
}
