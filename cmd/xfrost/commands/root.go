package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"xfrost/internal/app"
)

var (
	home       string
	kvURL      string
	parallel   bool
	maxSigners int
	threshold  int

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "xfrost",
		Short: "FROST-Ed25519 distributed key generation and threshold signing coordinator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".xfrost")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			w, err := app.NewWire(app.Config{
				Home:       home,
				KvURL:      kvURL,
				Parallel:   parallel,
				MaxSigners: maxSigners,
				Threshold:  threshold,
			})
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.xfrost)")
	root.PersistentFlags().StringVar(&kvURL, "kv", "", "xfrost-kvd base URL (e.g. http://127.0.0.1:8090); defaults to an in-process store")
	root.PersistentFlags().BoolVar(&parallel, "parallel", false, "fetch/dispatch concurrently instead of sequentially")
	root.PersistentFlags().IntVar(&maxSigners, "max-signers", 0, "group size n (required before any group invite)")
	root.PersistentFlags().IntVar(&threshold, "threshold", 0, "group threshold m (required before any group invite)")

	root.AddCommand(ownerCmd(), registryCmd(), groupCmd(), signCmd())
	return root.Execute()
}
