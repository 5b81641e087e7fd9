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

package provision

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/dockerhost-provisioner/pkg/config"
	"github.com/azure/dockerhost-provisioner/pkg/fake"
	"github.com/azure/dockerhost-provisioner/pkg/prompt"
	"github.com/azure/dockerhost-provisioner/pkg/providers/deployment"
	"github.com/azure/dockerhost-provisioner/pkg/publicip"
	"github.com/azure/dockerhost-provisioner/pkg/sshkey"
)

type anySize struct{}

func (anySize) Validate(context.Context, string) error { return nil }

func succeededDeployment() armresources.DeploymentExtended {
	return armresources.DeploymentExtended{
		Properties: &armresources.DeploymentPropertiesExtended{
			ProvisioningState: to.Ptr(armresources.ProvisioningStateSucceeded),
			Outputs: map[string]interface{}{
				"vmName":          map[string]interface{}{"type": "String", "value": "devbox"},
				"adminUsername":   map[string]interface{}{"type": "String", "value": "azureuser"},
				"publicIpAddress": map[string]interface{}{"type": "String", "value": "203.0.113.9"},
				"fqdn":            map[string]interface{}{"type": "String", "value": "devbox-x.westeurope.cloudapp.azure.com"},
				"sshCommand":      map[string]interface{}{"type": "String", "value": "ssh azureuser@devbox-x.westeurope.cloudapp.azure.com"},
			},
		},
	}
}

type testEnv struct {
	cfg         *config.Config
	deployments *fake.DeploymentsAPI
	groups      *fake.ResourceGroupsAPI
	asker       *fake.Asker
	out         *bytes.Buffer
	runner      *Runner
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config), answers map[string]string) *testEnv {
	t.Helper()

	cfg := config.New("westeurope", "devbox")
	cfg.SSHKeyPath = filepath.Join(t.TempDir(), "id_rsa")
	cfg.SourceIPAddress = "203.0.113.7"
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	deployments := &fake.DeploymentsAPI{
		CreateOrUpdateFunc: func(ctx context.Context, rg, name string, dep armresources.Deployment) (armresources.DeploymentExtended, error) {
			return succeededDeployment(), nil
		},
	}
	groups := &fake.ResourceGroupsAPI{}
	asker := fake.NewAsker(answers)
	out := &bytes.Buffer{}

	publicIPs := &fake.PublicIPsAPI{
		GetFunc: func(ctx context.Context, resourceGroupName, name string) (armnetwork.PublicIPAddress, error) {
			return armnetwork.PublicIPAddress{
				Properties: &armnetwork.PublicIPAddressPropertiesFormat{
					IPAddress: to.Ptr("203.0.113.9"),
					DNSSettings: &armnetwork.PublicIPAddressDNSSettings{
						Fqdn: to.Ptr("devbox-x.westeurope.cloudapp.azure.com"),
					},
				},
			}, nil
		},
	}
	azClient := deployment.NewAZClientFromAPI(deployments, groups, publicIPs, &fake.VirtualMachinesAPI{
		InstanceViewFunc: fake.InstanceViewWithPowerState("PowerState/running"),
	})
	arm := deployment.NewProvider(azClient, cfg.ResourceGroup, cfg.Location)

	var ask prompt.Asker = asker.Ask
	runner := NewRunner(cfg, arm, anySize{}, publicip.NewResolver(publicip.DefaultEchoEndpoint, ask), sshkey.EnsureKeyPair, ask, out)

	return &testEnv{cfg: cfg, deployments: deployments, groups: groups, asker: asker, out: out, runner: runner}
}

func deploymentParameters(t *testing.T, deployments *fake.DeploymentsAPI) map[string]interface{} {
	t.Helper()
	require.NotNil(t, deployments.LastDeployment.Properties)
	params, ok := deployments.LastDeployment.Properties.Parameters.(map[string]interface{})
	require.True(t, ok, "parameters must be the wrapped map form")
	return params
}

func TestUpWithKeyAuth(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	require.NoError(t, env.runner.Up(context.Background()))

	output := env.out.String()
	// outputs echoed verbatim
	assert.Contains(t, output, "203.0.113.9")
	assert.Contains(t, output, "devbox-x.westeurope.cloudapp.azure.com")
	assert.Contains(t, output, "azureuser")
	// key-mode connection variant
	assert.Contains(t, output, "-i "+env.cfg.SSHKeyPath)
	assert.NotContains(t, output, "admin password")
	// remote engine context commands
	assert.Contains(t, output, `docker context create devbox --docker "host=ssh://azureuser@devbox-x.westeurope.cloudapp.azure.com"`)
	assert.Contains(t, output, "docker context use devbox")

	params := deploymentParameters(t, env.deployments)
	assert.Contains(t, params, "adminSshPublicKey")
	assert.NotContains(t, params, "adminPassword")
	assert.Equal(t, map[string]interface{}{"value": "203.0.113.7"}, params["sourceMyIpAddress"])

	// key pair generated exactly once, then reused
	assert.FileExists(t, env.cfg.SSHKeyPath)
	assert.FileExists(t, env.cfg.PublicKeyPath())
	assert.Equal(t, 1, env.groups.CreateOrUpdateCalls)
}

func TestUpReusesExistingKeyPair(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, generated, err := sshkey.EnsureKeyPair(env.cfg.SSHKeyPath)
	require.NoError(t, err)
	require.True(t, generated)

	require.NoError(t, env.runner.Up(context.Background()))
	assert.Contains(t, env.out.String(), "Using existing SSH key pair")
}

func TestUpWithPasswordAuth(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.AuthMode = config.AuthModePassword
		cfg.SSHKeyPath = ""
	}, map[string]string{
		"Password for admin user azureuser:": "hunter2hunter2",
	})

	require.NoError(t, env.runner.Up(context.Background()))

	params := deploymentParameters(t, env.deployments)
	assert.NotContains(t, params, "adminSshPublicKey", "password mode must never forward a public key")
	assert.Equal(t, map[string]interface{}{"value": "hunter2hunter2"}, params["adminPassword"])

	output := env.out.String()
	assert.Contains(t, output, "admin password")
	assert.NotContains(t, output, "-i ")
}

func TestUpPrintsDeploymentFailureDetails(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.deployments.CreateOrUpdateFunc = func(ctx context.Context, rg, name string, dep armresources.Deployment) (armresources.DeploymentExtended, error) {
		return armresources.DeploymentExtended{
			Properties: &armresources.DeploymentPropertiesExtended{
				ProvisioningState: to.Ptr(armresources.ProvisioningStateFailed),
				Error: &armresources.ErrorResponse{
					Code:    to.Ptr("DeploymentFailed"),
					Message: to.Ptr("top level failed"),
					Details: []*armresources.ErrorResponse{
						{Code: to.Ptr("Conflict"), Message: to.Ptr("nested detail one")},
						{Code: to.Ptr("BadRequest"), Message: to.Ptr("nested detail two")},
					},
				},
			},
		}, nil
	}

	err := env.runner.Up(context.Background())
	require.Error(t, err)

	output := env.out.String()
	assert.Contains(t, output, "top level failed")
	assert.Contains(t, output, "nested detail one")
	assert.Contains(t, output, "nested detail two")
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	require.NoError(t, env.runner.Status(context.Background()))
	assert.Contains(t, env.out.String(), "VM devbox: running")
	assert.Contains(t, env.out.String(), "203.0.113.9")
}

func TestDownConfirmationDeclined(t *testing.T) {
	env := newTestEnv(t, nil, map[string]string{
		"Delete resource group devbox-rg and all its resources?": "no",
	})

	require.NoError(t, env.runner.Down(context.Background(), false))
	assert.Contains(t, env.out.String(), "Aborted")
	assert.Equal(t, 0, env.groups.DeleteCalls)
}

func TestDownForced(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	require.NoError(t, env.runner.Down(context.Background(), true))
	assert.Equal(t, 1, env.groups.DeleteCalls)
	assert.Contains(t, env.out.String(), "Deleted")
}
