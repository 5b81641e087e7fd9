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

// Package fake holds hand-written API doubles for the narrow client
// interfaces the providers consume. Behavior is injected per test through
// function fields; call counts are recorded for idempotency assertions.
package fake

import (
	"context"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// NotFoundError mimics the response error ARM returns for a missing resource.
func NotFoundError(code string) error {
	return &azcore.ResponseError{
		ErrorCode:  code,
		StatusCode: http.StatusNotFound,
	}
}

type DeploymentsAPI struct {
	CreateOrUpdateFunc  func(ctx context.Context, resourceGroupName, deploymentName string, deployment armresources.Deployment) (armresources.DeploymentExtended, error)
	CreateOrUpdateCalls int

	// LastDeployment records the most recent submission for parameter assertions.
	LastDeployment armresources.Deployment
}

func (f *DeploymentsAPI) CreateOrUpdate(ctx context.Context, resourceGroupName, deploymentName string, deployment armresources.Deployment) (armresources.DeploymentExtended, error) {
	f.CreateOrUpdateCalls++
	f.LastDeployment = deployment
	if f.CreateOrUpdateFunc == nil {
		return armresources.DeploymentExtended{}, nil
	}
	return f.CreateOrUpdateFunc(ctx, resourceGroupName, deploymentName, deployment)
}

type ResourceGroupsAPI struct {
	GetFunc            func(ctx context.Context, name string) (armresources.ResourceGroup, error)
	CreateOrUpdateFunc func(ctx context.Context, name string, group armresources.ResourceGroup) (armresources.ResourceGroup, error)
	DeleteFunc         func(ctx context.Context, name string) error

	GetCalls            int
	CreateOrUpdateCalls int
	DeleteCalls         int
}

func (f *ResourceGroupsAPI) Get(ctx context.Context, name string) (armresources.ResourceGroup, error) {
	f.GetCalls++
	if f.GetFunc == nil {
		return armresources.ResourceGroup{}, NotFoundError("ResourceGroupNotFound")
	}
	return f.GetFunc(ctx, name)
}

func (f *ResourceGroupsAPI) CreateOrUpdate(ctx context.Context, name string, group armresources.ResourceGroup) (armresources.ResourceGroup, error) {
	f.CreateOrUpdateCalls++
	if f.CreateOrUpdateFunc == nil {
		return group, nil
	}
	return f.CreateOrUpdateFunc(ctx, name, group)
}

func (f *ResourceGroupsAPI) Delete(ctx context.Context, name string) error {
	f.DeleteCalls++
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, name)
}

type PublicIPsAPI struct {
	GetFunc func(ctx context.Context, resourceGroupName, name string) (armnetwork.PublicIPAddress, error)
}

func (f *PublicIPsAPI) Get(ctx context.Context, resourceGroupName, name string) (armnetwork.PublicIPAddress, error) {
	if f.GetFunc == nil {
		return armnetwork.PublicIPAddress{}, NotFoundError("ResourceNotFound")
	}
	return f.GetFunc(ctx, resourceGroupName, name)
}

type VirtualMachinesAPI struct {
	InstanceViewFunc func(ctx context.Context, resourceGroupName, vmName string) (armcompute.VirtualMachineInstanceView, error)
}

func (f *VirtualMachinesAPI) InstanceView(ctx context.Context, resourceGroupName, vmName string) (armcompute.VirtualMachineInstanceView, error) {
	if f.InstanceViewFunc == nil {
		return armcompute.VirtualMachineInstanceView{}, NotFoundError("ResourceNotFound")
	}
	return f.InstanceViewFunc(ctx, resourceGroupName, vmName)
}

// InstanceViewWithPowerState returns an InstanceViewFunc reporting the given
// power state code.
func InstanceViewWithPowerState(code string) func(ctx context.Context, resourceGroupName, vmName string) (armcompute.VirtualMachineInstanceView, error) {
	return func(ctx context.Context, resourceGroupName, vmName string) (armcompute.VirtualMachineInstanceView, error) {
		return armcompute.VirtualMachineInstanceView{
			Statuses: []*armcompute.InstanceViewStatus{
				{Code: ptr("ProvisioningState/succeeded")},
				{Code: ptr(code)},
			},
		}, nil
	}
}

func ptr(s string) *string { return &s }
