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

package deployment

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/services/compute/mgmt/2022-08-01/compute"
	"github.com/Azure/skewer"
	"k8s.io/klog/v2"

	"github.com/azure/dockerhost-provisioner/pkg/auth"
	armopts "github.com/azure/dockerhost-provisioner/pkg/utils/opts"
)

// DeploymentsAPI submits a template deployment and blocks until the provider
// reports a terminal state.
type DeploymentsAPI interface {
	CreateOrUpdate(ctx context.Context, resourceGroupName, deploymentName string, deployment armresources.Deployment) (armresources.DeploymentExtended, error)
}

// ResourceGroupsAPI covers the existence-check-then-create pattern plus teardown.
type ResourceGroupsAPI interface {
	Get(ctx context.Context, name string) (armresources.ResourceGroup, error)
	CreateOrUpdate(ctx context.Context, name string, group armresources.ResourceGroup) (armresources.ResourceGroup, error)
	Delete(ctx context.Context, name string) error
}

// PublicIPsAPI reads back the allocated address after deployment.
type PublicIPsAPI interface {
	Get(ctx context.Context, resourceGroupName, name string) (armnetwork.PublicIPAddress, error)
}

// VirtualMachinesAPI reads the instance view for status reporting.
type VirtualMachinesAPI interface {
	InstanceView(ctx context.Context, resourceGroupName, vmName string) (armcompute.VirtualMachineInstanceView, error)
}

type AZClient struct {
	deploymentsClient     DeploymentsAPI
	resourceGroupsClient  ResourceGroupsAPI
	publicIPsClient       PublicIPsAPI
	virtualMachinesClient VirtualMachinesAPI
	skuClient             skewer.ResourceClient
}

func NewAZClientFromAPI(
	deploymentsClient DeploymentsAPI,
	resourceGroupsClient ResourceGroupsAPI,
	publicIPsClient PublicIPsAPI,
	virtualMachinesClient VirtualMachinesAPI,
) *AZClient {
	return &AZClient{
		deploymentsClient:     deploymentsClient,
		resourceGroupsClient:  resourceGroupsClient,
		publicIPsClient:       publicIPsClient,
		virtualMachinesClient: virtualMachinesClient,
	}
}

func NewAZClient(ctx context.Context, cfg *auth.Config, cred azcore.TokenCredential) (*AZClient, error) {
	opts := armopts.DefaultArmOpts()

	deploymentsClient, err := armresources.NewDeploymentsClient(cfg.SubscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}
	klog.V(5).Infof("Created deployments client %v using token credential", deploymentsClient)

	resourceGroupsClient, err := armresources.NewResourceGroupsClient(cfg.SubscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}
	klog.V(5).Infof("Created resource groups client %v using token credential", resourceGroupsClient)

	publicIPsClient, err := armnetwork.NewPublicIPAddressesClient(cfg.SubscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}
	klog.V(5).Infof("Created public IP client %v using token credential", publicIPsClient)

	virtualMachinesClient, err := armcompute.NewVirtualMachinesClient(cfg.SubscriptionID, cred, opts)
	if err != nil {
		return nil, err
	}
	klog.V(5).Infof("Created virtual machines client %v using token credential", virtualMachinesClient)

	// TODO: move the SKUs client over to track 2 once skewer is migrated
	skuClient := compute.NewResourceSkusClient(cfg.SubscriptionID)
	authorizer, err := auth.NewAuthorizer(ctx, cred, "https://management.azure.com")
	if err != nil {
		return nil, err
	}
	skuClient.Authorizer = authorizer
	klog.V(5).Infof("Created sku client with authorizer: %v", skuClient)

	return &AZClient{
		deploymentsClient:     &deploymentsAPIAdapter{client: deploymentsClient},
		resourceGroupsClient:  &resourceGroupsAPIAdapter{client: resourceGroupsClient},
		publicIPsClient:       &publicIPsAPIAdapter{client: publicIPsClient},
		virtualMachinesClient: &virtualMachinesAPIAdapter{client: virtualMachinesClient},
		skuClient:             skuClient,
	}, nil
}

// SKUClient exposes the classic resource SKUs client for the vmsize provider.
func (c *AZClient) SKUClient() skewer.ResourceClient {
	return c.skuClient
}

// deploymentsAPIAdapter folds the SDK begin/poll pair into the blocking
// operation the provider needs.
type deploymentsAPIAdapter struct {
	client *armresources.DeploymentsClient
}

func (a *deploymentsAPIAdapter) CreateOrUpdate(ctx context.Context, resourceGroupName, deploymentName string, deployment armresources.Deployment) (armresources.DeploymentExtended, error) {
	poller, err := a.client.BeginCreateOrUpdate(ctx, resourceGroupName, deploymentName, deployment, nil)
	if err != nil {
		return armresources.DeploymentExtended{}, err
	}
	res, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return armresources.DeploymentExtended{}, err
	}
	return res.DeploymentExtended, nil
}

type resourceGroupsAPIAdapter struct {
	client *armresources.ResourceGroupsClient
}

func (a *resourceGroupsAPIAdapter) Get(ctx context.Context, name string) (armresources.ResourceGroup, error) {
	resp, err := a.client.Get(ctx, name, nil)
	if err != nil {
		return armresources.ResourceGroup{}, err
	}
	return resp.ResourceGroup, nil
}

func (a *resourceGroupsAPIAdapter) CreateOrUpdate(ctx context.Context, name string, group armresources.ResourceGroup) (armresources.ResourceGroup, error) {
	resp, err := a.client.CreateOrUpdate(ctx, name, group, nil)
	if err != nil {
		return armresources.ResourceGroup{}, err
	}
	return resp.ResourceGroup, nil
}

func (a *resourceGroupsAPIAdapter) Delete(ctx context.Context, name string) error {
	poller, err := a.client.BeginDelete(ctx, name, nil)
	if err != nil {
		return err
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return err
}

type publicIPsAPIAdapter struct {
	client *armnetwork.PublicIPAddressesClient
}

func (a *publicIPsAPIAdapter) Get(ctx context.Context, resourceGroupName, name string) (armnetwork.PublicIPAddress, error) {
	resp, err := a.client.Get(ctx, resourceGroupName, name, nil)
	if err != nil {
		return armnetwork.PublicIPAddress{}, err
	}
	return resp.PublicIPAddress, nil
}

type virtualMachinesAPIAdapter struct {
	client *armcompute.VirtualMachinesClient
}

func (a *virtualMachinesAPIAdapter) InstanceView(ctx context.Context, resourceGroupName, vmName string) (armcompute.VirtualMachineInstanceView, error) {
	resp, err := a.client.InstanceView(ctx, resourceGroupName, vmName, nil)
	if err != nil {
		return armcompute.VirtualMachineInstanceView{}, err
	}
	return resp.VirtualMachineInstanceView, nil
}
