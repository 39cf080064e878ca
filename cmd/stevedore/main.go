// Command stevedore prepares Docker hosts and rolls out containerized
// applications from declared configuration.
//
// Usage:
//
//	stevedore setup [--force-tls]        - provision daemon TLS and networks
//	stevedore deploy <app> [<app>...]    - converge applications
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eliminyro/stevedore/internal/core/resolve"
	"github.com/eliminyro/stevedore/internal/shell/cfssl"
	"github.com/eliminyro/stevedore/internal/shell/deploy"
	"github.com/eliminyro/stevedore/internal/shell/docker"
	"github.com/eliminyro/stevedore/internal/shell/hostfs"
	"github.com/eliminyro/stevedore/internal/shell/setup"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "stevedore",
		Short:         "Docker host setup and declarative application rollout",
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(newSetupCmd(&configPath))
	root.AddCommand(newDeployCmd(&configPath))
	return root
}

// =============================================================================
// setup Command
// =============================================================================

func newSetupCmd(configPath *string) *cobra.Command {
	var forceTLS bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision daemon TLS, daemon configuration, and networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg)
			logger.Info("starting setup",
				"version", Version,
				"server_name", cfg.Setup.ServerName,
			)

			if cfg.Setup.ServerName == "" {
				return fmt.Errorf("setup.server_name is required")
			}
			if cfg.Setup.CAURL == "" {
				return fmt.Errorf("setup.ca_url is required")
			}

			engine, err := docker.NewEngineClient(docker.Options{Host: cfg.Docker.Host})
			if err != nil {
				return err
			}
			defer engine.Close()

			provisioner := cfssl.NewProvisioner(cfssl.NewClient(cfg.Setup.CAURL), cfg.Setup.CertsDir, logger)
			pipeline := setup.New(provisioner, engine, nil, nil, logger)

			return pipeline.Run(setup.Params{
				ServerName: cfg.Setup.ServerName,
				TLSPort:    cfg.Setup.TLSPort,
				CertsDir:   cfg.Setup.CertsDir,
				Extra:      cfg.Setup.Extra,
				CSR:        cfg.Setup.CSRRequest(),
				Force:      forceTLS,
				Networks:   cfg.Setup.DomainNetworks(),
			})
		},
	}
	cmd.Flags().BoolVar(&forceTLS, "force-tls", false, "reissue TLS material even if a valid bundle exists")
	return cmd
}

// =============================================================================
// deploy Command
// =============================================================================

func newDeployCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <app> [<app>...]",
		Short: "Converge applications onto their declared state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg)

			ns, err := resolve.LoadNamespace(cfg.Deploy.Namespace)
			if err != nil {
				return err
			}
			if len(cfg.Deploy.Vars) > 0 {
				ns = ns.Merge(resolve.Namespace(cfg.Deploy.Vars))
			}

			engine, err := docker.NewEngineClient(docker.Options{Host: cfg.Docker.Host})
			if err != nil {
				return err
			}
			defer engine.Close()

			deployer := deploy.NewDeployer(
				engine,
				hostfs.NewMaterializer(cfg.Deploy.Owner, cfg.Deploy.Group, logger),
				hostfs.NewRenderer(cfg.Deploy.SourceRoot, logger),
				nil,
				logger,
			)

			for _, prefix := range args {
				app, err := resolve.AppVars(prefix, ns)
				if err != nil {
					return err
				}
				if err := deployer.Deploy(app); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
