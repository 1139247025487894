package main

import (
	"github.com/spf13/cobra"

	"github.com/zeusync/magfield/internal/config"
)

type rootOptions struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "magfield",
		Short:         "Magnetic field of straight conductors: server, terminal viewer and sampler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := config.NewViper(opts.configFile)

			// explicit flags win over file and environment
			if f := cmd.Flags().Lookup("scene"); f != nil && f.Changed {
				v.Set("scene", f.Value.String())
			}
			if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
				v.Set("log.level", f.Value.String())
			}

			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./magfield.yaml)")
	root.PersistentFlags().String("scene", "", "scene seed file with conductors and camera")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newServeCmd(opts),
		newViewCmd(opts),
		newSampleCmd(opts),
	)
	return root
}
