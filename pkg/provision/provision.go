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

// Package provision sequences one run: source IP, credential material,
// resource group, template deployment, and the final connection summary.
// Every step blocks on the previous one; there are no retries.
package provision

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/azure/dockerhost-provisioner/pkg/config"
	"github.com/azure/dockerhost-provisioner/pkg/prompt"
	"github.com/azure/dockerhost-provisioner/pkg/providers/deployment"
	"github.com/azure/dockerhost-provisioner/pkg/template"
)

// ARMProvider is the provider-side port: everything the pipeline asks Azure
// to do.
type ARMProvider interface {
	EnsureResourceGroup(ctx context.Context) (bool, error)
	Deploy(ctx context.Context, template []byte, parameters map[string]interface{}) (*deployment.Result, error)
	PublicIP(ctx context.Context, name string) (address, fqdn string, err error)
	VMPowerState(ctx context.Context, vmName string) (string, error)
	DeleteResourceGroup(ctx context.Context) error
}

// IPResolver resolves the configured source-IP value into an address or CIDR.
type IPResolver interface {
	Resolve(ctx context.Context, configured string) (string, error)
}

// SizeValidator checks the requested VM size against the region's catalog.
type SizeValidator interface {
	Validate(ctx context.Context, size string) error
}

// KeyEnsurer locates or generates the login key pair and returns the public
// key text.
type KeyEnsurer func(privateKeyPath string) (publicKey string, generated bool, err error)

// Runner holds the validated config and the ports of one provisioning run.
type Runner struct {
	cfg       *config.Config
	arm       ARMProvider
	sizes     SizeValidator
	ips       IPResolver
	ensureKey KeyEnsurer
	ask       prompt.Asker
	out       io.Writer
}

func NewRunner(cfg *config.Config, arm ARMProvider, sizes SizeValidator, ips IPResolver, ensureKey KeyEnsurer, ask prompt.Asker, out io.Writer) *Runner {
	return &Runner{
		cfg:       cfg,
		arm:       arm,
		sizes:     sizes,
		ips:       ips,
		ensureKey: ensureKey,
		ask:       ask,
		out:       out,
	}
}

// Up provisions the Docker host end to end and prints the connection summary.
func (r *Runner) Up(ctx context.Context) error {
	cfg := r.cfg

	fmt.Fprintf(r.out, "Resolving source IP for firewall scoping...\n")
	sourceIP, err := r.ips.Resolve(ctx, cfg.SourceIPAddress)
	if err != nil {
		return errors.Wrap(err, "resolving source IP")
	}
	fmt.Fprintf(r.out, "NSG inbound rules will be scoped to %s\n", sourceIP)

	publicKey, password, err := r.credentialMaterial()
	if err != nil {
		return err
	}

	if err := r.sizes.Validate(ctx, cfg.VMSize); err != nil {
		return errors.Wrap(err, "validating VM size")
	}

	created, err := r.arm.EnsureResourceGroup(ctx)
	if err != nil {
		return errors.Wrapf(err, "ensuring resource group %s", cfg.ResourceGroup)
	}
	if created {
		fmt.Fprintf(r.out, "Created resource group %s in %s\n", cfg.ResourceGroup, cfg.Location)
	} else {
		fmt.Fprintf(r.out, "Resource group %s already exists\n", cfg.ResourceGroup)
	}

	body, err := template.Render(cfg.AdminUsername, cfg.KeyAuth())
	if err != nil {
		return errors.Wrap(err, "rendering deployment template")
	}
	parameters := template.BuildParameters(cfg, publicKey, password, sourceIP)

	fmt.Fprintf(r.out, "Deploying VM %s (%s), this can take a few minutes...\n", cfg.VMName, cfg.VMSize)
	result, err := r.arm.Deploy(ctx, body, parameters)
	if err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return errors.Wrap(err, "deployment failed")
	}

	r.fillMissingAddress(ctx, result)
	r.printSummary(result)
	return nil
}

// credentialMaterial prepares exactly one of {public key, password}. The
// unused one stays empty and is never forwarded.
func (r *Runner) credentialMaterial() (publicKey, password string, err error) {
	cfg := r.cfg
	if cfg.KeyAuth() {
		key, generated, err := r.ensureKey(cfg.SSHKeyPath)
		if err != nil {
			return "", "", errors.Wrap(err, "preparing SSH key pair")
		}
		if generated {
			fmt.Fprintf(r.out, "Generated new SSH key pair at %s\n", cfg.SSHKeyPath)
		} else {
			fmt.Fprintf(r.out, "Using existing SSH key pair at %s\n", cfg.SSHKeyPath)
		}
		return key, "", nil
	}

	password = cfg.AdminPassword
	if password == "" {
		password, err = prompt.AskPassword(r.ask, fmt.Sprintf("Password for admin user %s:", cfg.AdminUsername))
		if err != nil {
			return "", "", errors.Wrap(err, "reading admin password")
		}
	}
	return "", password, nil
}

// fillMissingAddress reads the public IP resource directly when the template
// outputs came back empty, which happens with dynamically allocated addresses.
func (r *Runner) fillMissingAddress(ctx context.Context, result *deployment.Result) {
	if result.PublicIPAddress != "" && result.FQDN != "" {
		return
	}
	address, fqdn, err := r.arm.PublicIP(ctx, r.cfg.PublicIPName)
	if err != nil {
		return
	}
	if result.PublicIPAddress == "" {
		result.PublicIPAddress = address
	}
	if result.FQDN == "" {
		result.FQDN = fqdn
	}
}

func (r *Runner) printSummary(result *deployment.Result) {
	cfg := r.cfg
	host := result.FQDN
	if host == "" {
		host = result.PublicIPAddress
	}

	green := color.New(color.FgGreen)
	green.Fprintf(r.out, "\nVM %s is ready.\n", result.VMName)
	fmt.Fprintf(r.out, "  Admin user:  %s\n", result.AdminUsername)
	fmt.Fprintf(r.out, "  Public IP:   %s\n", result.PublicIPAddress)
	fmt.Fprintf(r.out, "  FQDN:        %s\n", result.FQDN)

	if cfg.KeyAuth() {
		fmt.Fprintf(r.out, "  SSH:         %s -i %s\n", result.SSHCommand, cfg.SSHKeyPath)
	} else {
		fmt.Fprintf(r.out, "  SSH:         %s (you will be asked for the admin password)\n", result.SSHCommand)
	}

	fmt.Fprintf(r.out, "\nPoint your local Docker client at the new host:\n")
	fmt.Fprintf(r.out, "  docker context create %s --docker \"host=ssh://%s@%s\"\n", result.VMName, result.AdminUsername, host)
	fmt.Fprintf(r.out, "  docker context use %s\n", result.VMName)
}

// Status prints the VM power state and its public address.
func (r *Runner) Status(ctx context.Context) error {
	state, err := r.arm.VMPowerState(ctx, r.cfg.VMName)
	if err != nil {
		return errors.Wrapf(err, "reading instance view of %s", r.cfg.VMName)
	}
	address, fqdn, err := r.arm.PublicIP(ctx, r.cfg.PublicIPName)
	if err != nil {
		return errors.Wrapf(err, "reading public IP %s", r.cfg.PublicIPName)
	}

	fmt.Fprintf(r.out, "VM %s: %s\n", r.cfg.VMName, state)
	fmt.Fprintf(r.out, "  Public IP: %s\n", address)
	fmt.Fprintf(r.out, "  FQDN:      %s\n", fqdn)
	return nil
}

// Down deletes the resource group and everything in it.
func (r *Runner) Down(ctx context.Context, force bool) error {
	if !force {
		confirmed, err := prompt.AskConfirm(r.ask, fmt.Sprintf("Delete resource group %s and all its resources?", r.cfg.ResourceGroup), false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintf(r.out, "Aborted.\n")
			return nil
		}
	}

	fmt.Fprintf(r.out, "Deleting resource group %s...\n", r.cfg.ResourceGroup)
	if err := r.arm.DeleteResourceGroup(ctx); err != nil {
		return errors.Wrapf(err, "deleting resource group %s", r.cfg.ResourceGroup)
	}
	fmt.Fprintf(r.out, "Deleted.\n")
	return nil
}
