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

package auth

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const armTokenScope = "https://management.azure.com/.default"

// NewCredential provides a token credential for the local operator session.
// The Azure CLI login is tried first so the tool shares `az login` state, with
// the default environment/managed-identity chain as fallback.
func NewCredential(cfg *Config) (azcore.TokenCredential, error) {
	cliCred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
		TenantID: cfg.TenantID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating azure cli credential")
	}

	defaultCred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating default azure credential")
	}

	chain, err := azidentity.NewChainedTokenCredential([]azcore.TokenCredential{cliCred, defaultCred}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating chained token credential")
	}
	return chain, nil
}

// EnsureLogin acquires an ARM token once so a missing or expired login fails
// fast, before any resources are touched.
func EnsureLogin(ctx context.Context, cred azcore.TokenCredential) error {
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{armTokenScope}})
	if err != nil {
		return errors.Wrap(err, "no active Azure session, run `az login` first")
	}
	klog.V(4).InfoS("acquired ARM token", "expiresOn", token.ExpiresOn)
	return nil
}
