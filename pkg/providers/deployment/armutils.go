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

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"k8s.io/klog/v2"

	"github.com/azure/dockerhost-provisioner/pkg/utils"
)

// ensureResourceGroup fetches the group by name and creates it when absent.
// It reports whether a create call was made. A race between two concurrent
// runs with the same name is unhandled.
func ensureResourceGroup(ctx context.Context, client ResourceGroupsAPI, name, location string) (bool, error) {
	klog.InfoS("ensureResourceGroup", "resourceGroup", name)

	_, err := client.Get(ctx, name)
	if err == nil {
		klog.V(2).InfoS("resource group exists", "resourceGroup", name)
		return false, nil
	}
	if !utils.IsAzureNotFoundError(err) {
		return false, err
	}

	_, err = client.CreateOrUpdate(ctx, name, armresources.ResourceGroup{
		Location: to.Ptr(location),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func createDeployment(ctx context.Context, client DeploymentsAPI, rg, name string, dep armresources.Deployment) (*armresources.DeploymentExtended, error) {
	klog.InfoS("createDeployment", "deployment", name, "resourceGroup", rg)

	res, err := client.CreateOrUpdate(ctx, rg, name, dep)
	if err != nil {
		return nil, newDeploymentError(err)
	}
	return &res, nil
}

func deleteResourceGroup(ctx context.Context, client ResourceGroupsAPI, name string) error {
	klog.InfoS("deleteResourceGroup", "resourceGroup", name)

	err := client.Delete(ctx, name)
	if err != nil {
		if utils.IsAzureNotFoundError(err) {
			return nil
		}
		return err
	}
	return nil
}
