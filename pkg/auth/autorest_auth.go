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
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/go-autorest/autorest"
	"github.com/pkg/errors"
)

// authResult adapts a track-2 access token to the track-1 OAuthTokenProvider
// interface. The resource SKUs client still rides on the classic SDK.
type authResult struct {
	accessToken string
	expiresOn   time.Time
}

// NewAuthorizer acquires a bearer token from the track-2 credential and wraps
// it for classic SDK clients. The token is acquired once, which is enough for
// a single provisioning run.
func NewAuthorizer(ctx context.Context, cred azcore.TokenCredential, resourceEndpoint string) (autorest.Authorizer, error) {
	scope := strings.TrimSuffix(resourceEndpoint, "/") + "/.default"
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire token")
	}

	return autorest.NewBearerAuthorizer(authResult{
		accessToken: token.Token,
		expiresOn:   token.ExpiresOn,
	}), nil
}

// OAuthToken implements the OAuthTokenProvider interface. It returns the current access token.
func (ar authResult) OAuthToken() string {
	return ar.accessToken
}
