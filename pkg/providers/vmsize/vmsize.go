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

// Package vmsize checks the requested VM size against the SKU catalog for the
// target region before anything is deployed.
package vmsize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Azure/skewer"
	"github.com/patrickmn/go-cache"
	"k8s.io/klog/v2"
)

const (
	vmSizesCacheKey = "sizes"
	vmSizesCacheTTL = 23 * time.Hour
)

type Provider struct {
	sync.Mutex
	region             string
	resourceSkusClient skewer.ResourceClient
	// Has one cache entry for all the size names (key: vmSizesCacheKey)
	cache *cache.Cache
}

func NewProvider(region string, resourceSkusClient skewer.ResourceClient) *Provider {
	return &Provider{
		region:             region,
		resourceSkusClient: resourceSkusClient,
		cache:              cache.New(vmSizesCacheTTL, vmSizesCacheTTL),
	}
}

// List returns the VM size names offered in the region, cached across calls.
func (p *Provider) List(ctx context.Context) ([]string, error) {
	p.Lock()
	defer p.Unlock()

	if cached, ok := p.cache.Get(vmSizesCacheKey); ok {
		return cached.([]string), nil
	}

	skuCache, err := skewer.NewCache(ctx, skewer.WithLocation(p.region), skewer.WithResourceClient(p.resourceSkusClient))
	if err != nil {
		return nil, fmt.Errorf("fetching SKUs using skewer, %w", err)
	}

	skus := skuCache.List(ctx, skewer.ResourceTypeFilter(skewer.VirtualMachines))
	sizes := make([]string, 0, len(skus))
	for i := range skus {
		sizes = append(sizes, skus[i].GetName())
	}
	sort.Strings(sizes)

	klog.V(2).InfoS("listed VM sizes", "region", p.region, "count", len(sizes))
	p.cache.SetDefault(vmSizesCacheKey, sizes)
	return sizes, nil
}

// Validate fails when the requested size is not offered in the region. A
// catalog listing failure only logs a warning; the deployment itself will
// reject a truly bad size.
func (p *Provider) Validate(ctx context.Context, size string) error {
	sizes, err := p.List(ctx)
	if err != nil {
		klog.V(1).InfoS("skipping VM size validation, SKU catalog unavailable", "error", err)
		return nil
	}

	for _, candidate := range sizes {
		if strings.EqualFold(candidate, size) {
			return nil
		}
	}
	return fmt.Errorf("VM size %q is not offered in region %s", size, p.region)
}
