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

// Package publicip resolves the operator's public address for firewall
// scoping. Detection failures degrade to a manual prompt, never to an
// aborted run.
package publicip

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"k8s.io/klog/v2"

	"github.com/azure/dockerhost-provisioner/pkg/config"
	"github.com/azure/dockerhost-provisioner/pkg/prompt"
)

const (
	// DefaultEchoEndpoint returns the caller's public IPv4 address as plain text.
	DefaultEchoEndpoint = "https://api.ipify.org"

	maxManualAttempts = 3
)

// Resolver turns the configured source-IP value into a concrete address or
// CIDR block.
type Resolver struct {
	endpoint string
	client   *retryablehttp.Client
	ask      prompt.Asker
}

// NewResolver builds a Resolver against the given echo endpoint. A nil asker
// disables the manual fallback.
func NewResolver(endpoint string, ask prompt.Asker) *Resolver {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil

	return &Resolver{
		endpoint: endpoint,
		client:   client,
		ask:      ask,
	}
}

// Resolve returns the address to scope the NSG rules to. An explicit value is
// validated and passed through unchanged; the detect sentinel triggers the
// echo query with a prompt fallback.
func (r *Resolver) Resolve(ctx context.Context, configured string) (string, error) {
	if configured != config.SourceIPDetect {
		if err := config.ValidateSourceIP(configured); err != nil {
			return "", err
		}
		return strings.TrimSpace(configured), nil
	}

	detected, err := r.detect(ctx)
	if err == nil {
		return detected, nil
	}
	klog.V(2).InfoS("public IP detection failed, falling back to manual entry", "endpoint", r.endpoint, "error", err)

	return r.askManually()
}

func (r *Resolver) detect(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", r.endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("echo endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}

	addr := strings.TrimSpace(string(body))
	if err := config.ValidateSourceIP(addr); err != nil {
		return "", fmt.Errorf("echo endpoint returned malformed body %q", addr)
	}
	klog.V(2).InfoS("detected public IP", "address", addr)
	return addr, nil
}

func (r *Resolver) askManually() (string, error) {
	if r.ask == nil {
		return "", fmt.Errorf("public IP detection failed and no prompt is available")
	}

	for attempt := 0; attempt < maxManualAttempts; attempt++ {
		value, err := prompt.AskString(r.ask, "Your public IP address or CIDR block:", "")
		if err != nil {
			return "", err
		}
		value = strings.TrimSpace(value)
		if err := config.ValidateSourceIP(value); err == nil {
			return value, nil
		}
		fmt.Printf("%q is not a valid address or CIDR block\n", value)
	}
	return "", fmt.Errorf("no valid public IP entered after %d attempts", maxManualAttempts)
}
