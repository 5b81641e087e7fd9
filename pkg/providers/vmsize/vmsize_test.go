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

package vmsize

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/services/compute/mgmt/2022-08-01/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/dockerhost-provisioner/pkg/fake"
)

func TestValidate(t *testing.T) {
	skusAPI := &fake.ResourceSKUsAPI{
		SKUs: []compute.ResourceSku{
			fake.VMSizeSKU("Standard_B2s", "westeurope"),
			fake.VMSizeSKU("Standard_D2s_v3", "westeurope"),
			fake.VMSizeSKU("Standard_NC6s_v3", "eastus"),
		},
	}
	p := NewProvider("westeurope", skusAPI)

	assert.NoError(t, p.Validate(context.Background(), "Standard_B2s"))
	assert.NoError(t, p.Validate(context.Background(), "standard_d2s_v3"), "size match is case-insensitive")
	assert.Error(t, p.Validate(context.Background(), "Standard_NC6s_v3"), "size offered elsewhere must fail for this region")
	assert.Error(t, p.Validate(context.Background(), "Standard_Z99"))
}

func TestListUsesCache(t *testing.T) {
	skusAPI := &fake.ResourceSKUsAPI{
		SKUs: []compute.ResourceSku{fake.VMSizeSKU("Standard_B2s", "westeurope")},
	}
	p := NewProvider("westeurope", skusAPI)

	first, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Standard_B2s"}, first)

	// catalog breaking after the first fetch must not matter
	skusAPI.Err = errors.New("throttled")
	second, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateToleratesCatalogOutage(t *testing.T) {
	skusAPI := &fake.ResourceSKUsAPI{Err: errors.New("throttled")}
	p := NewProvider("westeurope", skusAPI)

	assert.NoError(t, p.Validate(context.Background(), "Standard_B2s"),
		"catalog outage must not block provisioning")
}
