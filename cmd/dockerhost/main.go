/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// dockerhost provisions a single Azure VM prepared as a remote Docker engine
// host and prints the docker context commands to reach it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/azure/dockerhost-provisioner/pkg/auth"
	"github.com/azure/dockerhost-provisioner/pkg/config"
	"github.com/azure/dockerhost-provisioner/pkg/prompt"
	"github.com/azure/dockerhost-provisioner/pkg/provision"
	"github.com/azure/dockerhost-provisioner/pkg/providers/deployment"
	"github.com/azure/dockerhost-provisioner/pkg/providers/vmsize"
	"github.com/azure/dockerhost-provisioner/pkg/publicip"
	"github.com/azure/dockerhost-provisioner/pkg/sshkey"
)

type options struct {
	subscriptionID string
	location       string

	vmName        string
	vmSize        string
	adminUsername string
	authMode      string
	adminPassword string
	sshKeyPath    string
	sourceIP      string
	resourceGroup string

	vnetName     string
	subnetName   string
	publicIPName string
	nsgName      string
	nicName      string

	echoEndpoint string
	noPrompt     bool
	yes          bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "dockerhost",
		Short:         "Provision an Azure VM as a remote Docker engine host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.subscriptionID, "subscription", "", "Azure subscription ID (defaults to AZURE_SUBSCRIPTION_ID)")
	pf.StringVar(&opts.location, "location", "", "Azure region (defaults to LOCATION)")
	pf.StringVar(&opts.vmName, "name", "dockerhost", "VM name, also the basis for derived resource names")
	pf.StringVar(&opts.resourceGroup, "resource-group", "", "resource group name (default <name>-rg)")
	pf.BoolVar(&opts.noPrompt, "no-prompt", false, "fail instead of prompting for missing input")

	root.AddCommand(newUpCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newDownCmd(opts))
	return root
}

func newUpCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the VM, install Docker, and print connection commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := buildRunner(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return runner.Up(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.vmSize, "size", "Standard_B2s", "VM size")
	f.StringVar(&opts.adminUsername, "admin-user", "azureuser", "admin username on the VM")
	f.StringVar(&opts.authMode, "auth", config.AuthModeKey, "login credential mode: key or password")
	f.StringVar(&opts.adminPassword, "password", "", "admin password for --auth password (prompted when empty)")
	f.StringVar(&opts.sshKeyPath, "ssh-key", "", "private key path for --auth key (default ~/.ssh/id_rsa)")
	f.StringVar(&opts.sourceIP, "source-ip", config.SourceIPDetect,
		"address or CIDR allowed through the firewall, or 'detect' for auto-detection")
	f.StringVar(&opts.vnetName, "vnet-name", "", "virtual network name (default <name>-vnet)")
	f.StringVar(&opts.subnetName, "subnet-name", "", "subnet name (default <name>-subnet)")
	f.StringVar(&opts.publicIPName, "public-ip-name", "", "public IP resource name (default <name>-ip)")
	f.StringVar(&opts.nsgName, "nsg-name", "", "network security group name (default <name>-nsg)")
	f.StringVar(&opts.nicName, "nic-name", "", "network interface name (default <name>-nic)")
	f.StringVar(&opts.echoEndpoint, "ip-echo-endpoint", publicip.DefaultEchoEndpoint, "IP echo service used for --source-ip detect")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the VM power state and public address",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := buildRunner(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return runner.Status(cmd.Context())
		},
	}
}

func newDownCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Delete the resource group and everything in it",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := buildRunner(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return runner.Down(cmd.Context(), opts.yes)
		},
	}
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func buildRunner(ctx context.Context, opts *options) (*provision.Runner, error) {
	azureCfg, err := auth.BuildAzureConfig(opts.subscriptionID, opts.location)
	if err != nil {
		return nil, err
	}

	cred, err := auth.NewCredential(azureCfg)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureLogin(ctx, cred); err != nil {
		return nil, err
	}

	cfg := buildConfig(azureCfg.Location, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	azClient, err := deployment.NewAZClient(ctx, azureCfg, cred)
	if err != nil {
		return nil, err
	}

	ask := prompt.NewAsker(opts.noPrompt)
	arm := deployment.NewProvider(azClient, cfg.ResourceGroup, cfg.Location)
	sizes := vmsize.NewProvider(cfg.Location, azClient.SKUClient())

	echoEndpoint := opts.echoEndpoint
	if echoEndpoint == "" {
		echoEndpoint = publicip.DefaultEchoEndpoint
	}
	ips := publicip.NewResolver(echoEndpoint, ask)

	return provision.NewRunner(cfg, arm, sizes, ips, sshkey.EnsureKeyPair, ask, os.Stdout), nil
}

func buildConfig(location string, opts *options) *config.Config {
	cfg := config.New(location, opts.vmName)

	override := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}
	override(&cfg.ResourceGroup, opts.resourceGroup)
	override(&cfg.VMSize, opts.vmSize)
	override(&cfg.AdminUsername, opts.adminUsername)
	override(&cfg.AuthMode, opts.authMode)
	override(&cfg.AdminPassword, opts.adminPassword)
	override(&cfg.SSHKeyPath, opts.sshKeyPath)
	override(&cfg.SourceIPAddress, opts.sourceIP)
	override(&cfg.VnetName, opts.vnetName)
	override(&cfg.SubnetName, opts.subnetName)
	override(&cfg.PublicIPName, opts.publicIPName)
	override(&cfg.NSGName, opts.nsgName)
	override(&cfg.NICName, opts.nicName)
	return cfg
}
