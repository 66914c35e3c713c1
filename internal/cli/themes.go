package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

func buildThemeCommands(state *rootState) *cobra.Command {
	themeCmd := &cobra.Command{Use: "themes", Short: "List and inspect registered themes"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, state)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDISPLAY\tFAMILY\tTONE\tCONTRAST\t")
			for _, d := range e.reg.Descriptors() {
				name := d.Name
				if name == e.cfg.Theme {
					name += " *"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", name, d.Label(), d.FamilyName(), d.Tone, d.Contrast)
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a theme descriptor as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, state)
			if err != nil {
				return err
			}
			d, err := e.reg.Lookup(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(theme.SpecOf(d)); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	themeCmd.AddCommand(listCmd, showCmd)
	return themeCmd
}

type resolveFlags struct {
	accent       string
	selection    string
	dark         bool
	highContrast bool
	fontScale    float64
	overrides    string
	keys         []string
	prefix       string
	asJSON       bool
}

func buildResolveCommand(state *rootState) *cobra.Command {
	f := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve [name]",
		Short: "Build a theme and print its resolved defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, state)
			if err != nil {
				return err
			}
			name := e.cfg.Theme
			if len(args) == 1 {
				name = args[0]
			}
			d, err := e.reg.Lookup(name)
			if err != nil {
				return err
			}
			o, err := f.toOverrides(cmd)
			if err != nil {
				return err
			}
			if d, err = theme.Apply(d, o); err != nil {
				return err
			}
			res, err := e.reg.Install(d)
			if err != nil {
				return err
			}
			defaults := res.Defaults
			if len(f.keys) > 0 {
				defaults = defaults.Subset(f.keys)
			}
			return writeDefaults(cmd.OutOrStdout(), res, defaults, f.prefix, f.asJSON)
		},
	}
	cmd.Flags().StringVar(&f.accent, "accent", "", "accent color (#RRGGBB)")
	cmd.Flags().StringVar(&f.selection, "selection", "", "selection color (#RRGGBB)")
	cmd.Flags().BoolVar(&f.dark, "dark", false, "force the dark tone")
	cmd.Flags().BoolVar(&f.highContrast, "high-contrast", false, "force high contrast")
	cmd.Flags().Float64Var(&f.fontScale, "font-scale", 0, "font scale factor")
	cmd.Flags().StringVar(&f.overrides, "overrides", "", "YAML or JSON file of theme overrides")
	cmd.Flags().StringSliceVar(&f.keys, "keys", nil, "only print these keys")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "only print keys with this prefix")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON")
	return cmd
}

// toOverrides reads the overrides file and lays the flags that were set on
// top of it.
func (f *resolveFlags) toOverrides(cmd *cobra.Command) (theme.Overrides, error) {
	var o theme.Overrides
	if f.overrides != "" {
		raw, err := os.ReadFile(f.overrides)
		if err != nil {
			return o, fmt.Errorf("read overrides: %w", err)
		}
		if err := yaml.Unmarshal(raw, &o); err != nil {
			return o, fmt.Errorf("decode overrides %s: %w", f.overrides, err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("accent") {
		o.Accent = f.accent
	}
	if flags.Changed("selection") {
		o.Selection = f.selection
	}
	if flags.Changed("font-scale") {
		o.FontScale = f.fontScale
	}
	if flags.Changed("dark") {
		o.Dark = &f.dark
	}
	if flags.Changed("high-contrast") {
		o.HighContrast = &f.highContrast
	}
	return o, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// swatch renders a two-cell block in c.
func swatch(c props.Color) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.RGBHex())).Render("  ")
}

func writeDefaults(w io.Writer, res *theme.Result, defaults resolve.Defaults, prefix string, asJSON bool) error {
	keys := defaults.Keys()
	if asJSON {
		values := make(map[string]string, len(keys))
		for _, k := range keys {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			v, _ := defaults.Lookup(k)
			values[k] = v.String()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"theme":    res.Descriptor.Name,
			"palette":  res.Key.Digest(),
			"defaults": values,
		})
	}

	color := isTerminal(w)
	fmt.Fprintf(w, "# %s (%s)\n", res.Descriptor.Label(), res.Key)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v, _ := defaults.Lookup(k)
		if c, ok := v.Color(); ok && color {
			fmt.Fprintf(w, "%s %s = %s\n", swatch(c), k, v)
			continue
		}
		fmt.Fprintf(w, "%s = %s\n", k, v)
	}
	return nil
}

func buildSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of theme manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := theme.ManifestSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
