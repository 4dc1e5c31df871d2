package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	ashcache "github.com/Borislavv/go-ash-registry"
	"github.com/Borislavv/go-ash-registry/config"
	"github.com/spf13/cobra"
	"io"
	"text/tabwriter"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	var assumeLoader bool
	cmd := &cobra.Command{
		Use:   "check <config.yaml>",
		Short: "Build every cache of a definition file and print what was built",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.check(cmd.Context(), cmd.OutOrStdout(), args[0], assumeLoader)
		},
	}
	cmd.Flags().BoolVar(&assumeLoader, "assume-loader", false,
		"Attach a stub loader to refresh-ahead definitions so they can be checked")
	return cmd
}

func (c *CLI) check(ctx context.Context, out io.Writer, path string, assumeLoader bool) error {
	doc, err := config.Load(path)
	if err != nil {
		return err
	}

	r := ashcache.NewRegistry(ashcache.WithLogger(c.logger))
	defer func() {
		if cerr := r.Close(); cerr != nil {
			c.logger.Warn("closing registry", "err", cerr)
		}
	}()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MANAGER\tCACHE\tENGINE\tWIRED\tCAPACITY\tEXPIRY")

	var errs []error
	for _, md := range doc.Managers {
		m := r.Manager(md.Name)
		for i := range md.Caches {
			if err = ctx.Err(); err != nil {
				return err
			}
			def := &md.Caches[i]

			b := ashcache.ForRegistry[string, any](r).Manager(m).Apply(def)
			if assumeLoader && def.RefreshAhead {
				b.LoaderFunc(stubLoad)
			}
			cfg, err := b.Configuration()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", md.Name, displayName(def.Name), err))
				continue
			}
			cache, err := b.Build()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", md.Name, displayName(def.Name), err))
				continue
			}

			info := cache.Info()
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
				info.Manager, info.Name, info.Engine, info.Wired, capacity(info.Capacity), expiry(cfg))
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	return stderrors.Join(errs...)
}

func stubLoad(_ context.Context, key string) (any, error) { return key, nil }

func displayName(name string) string {
	if name == "" {
		return "<auto>"
	}
	return name
}

func capacity(n int64) string {
	if n == ashcache.Unbounded {
		return "unbounded"
	}
	return fmt.Sprint(n)
}

func expiry(cfg *ashcache.Configuration[string, any]) string {
	switch {
	case cfg.Eternal():
		return "eternal"
	case cfg.ExpireAfterWrite() > 0 && cfg.RefreshAhead():
		return cfg.ExpireAfterWrite().String() + " (refresh ahead)"
	case cfg.ExpireAfterWrite() > 0:
		return cfg.ExpireAfterWrite().String()
	default:
		return "none"
	}
}
