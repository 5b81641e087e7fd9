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

package fake

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/services/compute/mgmt/2022-08-01/compute"
	"github.com/samber/lo"
)

// ResourceSKUsAPI serves a fixed SKU list through the classic iterator shape
// skewer consumes.
type ResourceSKUsAPI struct {
	SKUs []compute.ResourceSku
	Err  error
}

// VMSizeSKU builds a minimal virtualMachines SKU entry for the given region.
func VMSizeSKU(name, location string) compute.ResourceSku {
	return compute.ResourceSku{
		Name:         lo.ToPtr(name),
		ResourceType: lo.ToPtr("virtualMachines"),
		Locations:    lo.ToPtr([]string{location}),
	}
}

func (f *ResourceSKUsAPI) ListComplete(ctx context.Context, filter string, includeExtendedLocations string) (compute.ResourceSkusResultIterator, error) {
	if f.Err != nil {
		return compute.ResourceSkusResultIterator{}, f.Err
	}

	page := compute.NewResourceSkusResultPage(
		compute.ResourceSkusResult{Value: &f.SKUs},
		func(context.Context, compute.ResourceSkusResult) (compute.ResourceSkusResult, error) {
			return compute.ResourceSkusResult{}, nil
		},
	)
	return compute.NewResourceSkusResultIterator(page), nil
}
