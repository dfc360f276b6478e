package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/talecache/talecache/internal/config"
	"github.com/talecache/talecache/pkg/errors"
)

type options struct {
	configPath string
	pool       string
	stats      bool
}

// NewRootCmd creates the root command for talecache
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "talecache",
		Short:         "Inspect and modify talecache pools",
		Long:          `Read and write cache entries of the pools declared in a talecache configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("TALECACHE_CONFIG"), "Configuration file")
	rootCmd.PersistentFlags().StringVarP(&opts.pool, "pool", "p", "", "Pool to use (default: the configured default pool)")
	rootCmd.PersistentFlags().BoolVar(&opts.stats, "stats", false, "Print pool statistics after the command")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "talecache %s\n", version)
		},
	}

	rootCmd.AddCommand(
		versionCmd,
		newHasCmd(opts),
		newGetCmd(opts),
		newSetCmd(opts),
		newDeleteCmd(opts),
		newClearCmd(opts),
		newPoolsCmd(opts),
	)

	return rootCmd
}

// PrintError writes err to w. Cache errors are followed by a hint on how
// to fix them.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var cacheErr *errors.CacheError
	if errors.As(err, &cacheErr) {
		fmt.Fprintf(w, "Hint: %s\n", cacheErr.Recommendation())
	}
}

// withApp runs fn with an App and closes it afterwards, committing any
// writes fn queued.
func withApp(cmd *cobra.Command, opts *options, fn func(app *App) error) (err error) {
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.stats {
		cfg.Metrics.Enabled = true
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if opts.stats && err == nil {
			err = printStats(cmd, app)
		}
	}()
	return fn(app)
}

func newHasCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "has <key>",
		Short: "Report whether a key is cached and not expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(app *App) error {
				gateway, err := app.Gateway(opts.pool)
				if err != nil {
					return err
				}
				has, err := gateway.Has(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), has)
				return nil
			})
		},
	}
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a cached value as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(app *App) error {
				gateway, err := app.Gateway(opts.pool)
				if err != nil {
					return err
				}
				has, err := gateway.Has(args[0])
				if err != nil {
					return err
				}
				if !has {
					return fmt.Errorf("key %q is not cached", args[0])
				}
				value, err := gateway.Get(args[0])
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(value, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to render value: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
}

func newSetCmd(opts *options) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value",
		Long: `Store a value under key. The value is parsed as JSON; text that is
not valid JSON is stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := parseValue(args[1])
			return withApp(cmd, opts, func(app *App) error {
				gateway, err := app.Gateway(opts.pool)
				if err != nil {
					return err
				}
				return gateway.Set(args[0], value, ttl)
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Lifetime of the entry (default: the pool lifetime)")

	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>...",
		Short: "Delete cached keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(app *App) error {
				gateway, err := app.Gateway(opts.pool)
				if err != nil {
					return err
				}
				ok, err := gateway.DeleteMany(args)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("failed to delete some keys")
				}
				return nil
			})
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry of a pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(app *App) error {
				gateway, err := app.Gateway(opts.pool)
				if err != nil {
					return err
				}
				if !gateway.Clear() {
					return fmt.Errorf("failed to clear pool")
				}
				return nil
			})
		},
	}
}

func newPoolsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "List configured pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(app *App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tTYPE\tDETAILS")
				for _, name := range app.Manager.Names() {
					pool := app.Config.Pool(name)
					if pool == nil {
						continue
					}
					marker := ""
					if name == app.Config.DefaultPoolName() {
						marker = "*"
					}
					fmt.Fprintf(w, "%s%s\t%s\t%s\n", name, marker, pool.Type, poolDetails(pool))
				}
				return w.Flush()
			})
		},
	}
}

func poolDetails(pool *config.PoolConfig) string {
	switch pool.Type {
	case config.PoolTypeFile:
		return fmt.Sprintf("path=%s format=%s", pool.Path, pool.Format)
	case config.PoolTypeRouting:
		routes := make([]string, 0, len(pool.Routes))
		for _, route := range pool.Routes {
			routes = append(routes, route.Prefix+"->"+route.Pool)
		}
		return strings.Join(routes, " ")
	default:
		return ""
	}
}

func printStats(cmd *cobra.Command, app *App) error {
	snapshot := app.Metrics.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tHITS\tMISSES\tOPERATIONS")
	for _, name := range names {
		stats := snapshot[name]
		ops := make([]string, 0, len(stats.Operations))
		for op, s := range stats.Operations {
			ops = append(ops, fmt.Sprintf("%s=%d", op, s.Total))
		}
		sort.Strings(ops)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, stats.Hits, stats.Misses, strings.Join(ops, " "))
	}
	return w.Flush()
}

// parseValue decodes s as JSON, keeping integral numbers as int. Text that
// is not JSON is returned as a string.
func parseValue(s string) any {
	decoder := json.NewDecoder(strings.NewReader(s))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil || decoder.More() {
		return s
	}
	return normalizeNumbers(value)
}

func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case []any:
		for i := range v {
			v[i] = normalizeNumbers(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = normalizeNumbers(v[k])
		}
		return v
	default:
		return value
	}
}
