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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAzureConfig(t *testing.T) {
	testCases := []struct {
		name           string
		env            map[string]string
		subscriptionID string
		location       string
		expected       *Config
		expectedError  string
	}{
		{
			name: "config from environment",
			env: map[string]string{
				"AZURE_SUBSCRIPTION_ID": "00000000-0000-0000-0000-000000000001",
				"AZURE_TENANT_ID":       "00000000-0000-0000-0000-000000000002",
				"LOCATION":              "westeurope",
			},
			expected: &Config{
				SubscriptionID: "00000000-0000-0000-0000-000000000001",
				TenantID:       "00000000-0000-0000-0000-000000000002",
				Location:       "westeurope",
			},
		},
		{
			name: "flags override environment",
			env: map[string]string{
				"AZURE_SUBSCRIPTION_ID": "00000000-0000-0000-0000-000000000001",
				"LOCATION":              "westeurope",
			},
			subscriptionID: "00000000-0000-0000-0000-00000000000f",
			location:       "eastus",
			expected: &Config{
				SubscriptionID: "00000000-0000-0000-0000-00000000000f",
				Location:       "eastus",
			},
		},
		{
			name: "legacy ARM_SUBSCRIPTION_ID is honored",
			env: map[string]string{
				"ARM_SUBSCRIPTION_ID": " 00000000-0000-0000-0000-000000000001 ",
				"LOCATION":            "westeurope",
			},
			expected: &Config{
				SubscriptionID: "00000000-0000-0000-0000-000000000001",
				Location:       "westeurope",
			},
		},
		{
			name:          "missing subscription fails",
			env:           map[string]string{"LOCATION": "westeurope"},
			expectedError: "subscription ID not set",
		},
		{
			name: "missing location fails",
			env: map[string]string{
				"AZURE_SUBSCRIPTION_ID": "00000000-0000-0000-0000-000000000001",
			},
			expectedError: "location not set",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"AZURE_SUBSCRIPTION_ID", "ARM_SUBSCRIPTION_ID", "AZURE_TENANT_ID", "LOCATION", "CLOUD_ENVIRONMENT"} {
				t.Setenv(key, "")
			}
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			cfg, err := BuildAzureConfig(tc.subscriptionID, tc.location)
			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg)
		})
	}
}
