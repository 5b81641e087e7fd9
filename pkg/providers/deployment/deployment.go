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

// Package deployment is the ARM port of the provisioner: resource-group
// ensure, template deployment with terminal-state wait, and the read-back
// calls the status and teardown commands need.
package deployment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

// Result is the outcome of a successful template deployment, mapped from the
// template outputs.
type Result struct {
	VMName            string
	AdminUsername     string
	PublicIPAddress   string
	FQDN              string
	SSHCommand        string
	ProvisioningState string
}

// Provider drives the ARM interactions for one resource group.
type Provider struct {
	azClient      *AZClient
	resourceGroup string
	location      string
}

func NewProvider(azClient *AZClient, resourceGroup, location string) *Provider {
	return &Provider{
		azClient:      azClient,
		resourceGroup: resourceGroup,
		location:      location,
	}
}

// EnsureResourceGroup creates the resource group when it does not exist yet
// and reports whether a create call was made.
func (p *Provider) EnsureResourceGroup(ctx context.Context) (bool, error) {
	return ensureResourceGroup(ctx, p.azClient.resourceGroupsClient, p.resourceGroup, p.location)
}

// Deploy submits the template with the given parameter set as an incremental
// deployment and blocks until ARM reports a terminal state. The parameter
// values must already be wrapped in the {"value": ...} envelope.
func (p *Provider) Deploy(ctx context.Context, template []byte, parameters map[string]interface{}) (*Result, error) {
	var templateBody map[string]interface{}
	if err := json.Unmarshal(template, &templateBody); err != nil {
		return nil, fmt.Errorf("parsing template body: %w", err)
	}

	name := deploymentName()
	dep := armresources.Deployment{
		Properties: &armresources.DeploymentProperties{
			Template:   templateBody,
			Parameters: parameters,
			Mode:       to.Ptr(armresources.DeploymentModeIncremental),
		},
	}

	extended, err := createDeployment(ctx, p.azClient.deploymentsClient, p.resourceGroup, name, dep)
	if err != nil {
		return nil, err
	}

	state := ""
	if extended.Properties != nil {
		state = string(lo.FromPtr(extended.Properties.ProvisioningState))
	}
	klog.InfoS("deployment finished", "deployment", name, "state", state)

	if !strings.EqualFold(state, string(armresources.ProvisioningStateSucceeded)) {
		depErr := &Error{State: state}
		if extended.Properties != nil {
			depErr.Details = errorLineFromARM(extended.Properties.Error)
		}
		return nil, depErr
	}

	result := resultFromOutputs(extended.Properties.Outputs)
	result.ProvisioningState = state
	return result, nil
}

// PublicIP reads the allocated public address resource back after deployment.
func (p *Provider) PublicIP(ctx context.Context, name string) (address, fqdn string, err error) {
	ip, err := p.azClient.publicIPsClient.Get(ctx, p.resourceGroup, name)
	if err != nil {
		return "", "", err
	}
	if ip.Properties != nil {
		address = lo.FromPtr(ip.Properties.IPAddress)
		if ip.Properties.DNSSettings != nil {
			fqdn = lo.FromPtr(ip.Properties.DNSSettings.Fqdn)
		}
	}
	return address, fqdn, nil
}

// VMPowerState reports the current power state of the VM, e.g. "running".
func (p *Provider) VMPowerState(ctx context.Context, vmName string) (string, error) {
	view, err := p.azClient.virtualMachinesClient.InstanceView(ctx, p.resourceGroup, vmName)
	if err != nil {
		return "", err
	}
	for _, status := range view.Statuses {
		code := lo.FromPtr(status.Code)
		if strings.HasPrefix(code, "PowerState/") {
			return strings.TrimPrefix(code, "PowerState/"), nil
		}
	}
	return "unknown", nil
}

// DeleteResourceGroup tears down the resource group and everything inside it.
// Deleting an absent group is a no-op.
func (p *Provider) DeleteResourceGroup(ctx context.Context) error {
	return deleteResourceGroup(ctx, p.azClient.resourceGroupsClient, p.resourceGroup)
}

// resultFromOutputs maps the untyped output envelope the SDK hands back. The
// http response parses into map[string]interface{} with a nested
// {"type": ..., "value": ...} object per output.
func resultFromOutputs(rawOutputs interface{}) *Result {
	result := &Result{}
	outputs, ok := rawOutputs.(map[string]interface{})
	if !ok {
		return result
	}

	stringOutput := func(key string) string {
		inner, ok := outputs[key].(map[string]interface{})
		if !ok {
			return ""
		}
		value, _ := inner["value"].(string)
		return value
	}

	result.VMName = stringOutput("vmName")
	result.AdminUsername = stringOutput("adminUsername")
	result.PublicIPAddress = stringOutput("publicIpAddress")
	result.FQDN = stringOutput("fqdn")
	result.SSHCommand = stringOutput("sshCommand")
	return result
}

func deploymentName() string {
	return "dockerhost-" + uuid.New().String()[:8]
}
