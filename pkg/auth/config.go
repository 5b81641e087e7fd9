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
	"fmt"
	"os"
	"strings"
)

// Config holds the Azure session parameters resolved from the environment.
type Config struct {
	Location         string `json:"location" yaml:"location"`
	TenantID         string `json:"tenantId" yaml:"tenantId"`
	SubscriptionID   string `json:"subscriptionId" yaml:"subscriptionId"`
	CloudEnvironment string `json:"cloudEnvironment" yaml:"cloudEnvironment"`
}

func (cfg *Config) BaseVars() {
	cfg.Location = os.Getenv("LOCATION")
	cfg.TenantID = os.Getenv("AZURE_TENANT_ID")
	cfg.SubscriptionID = os.Getenv("AZURE_SUBSCRIPTION_ID")
	if cfg.SubscriptionID == "" {
		cfg.SubscriptionID = os.Getenv("ARM_SUBSCRIPTION_ID")
	}
	cfg.CloudEnvironment = os.Getenv("CLOUD_ENVIRONMENT")
}

// BuildAzureConfig returns a Config object for the Azure clients, with
// environment values overridden by any non-empty flag values supplied.
func BuildAzureConfig(subscriptionID, location string) (*Config, error) {
	cfg := &Config{}
	cfg.BaseVars()
	if subscriptionID != "" {
		cfg.SubscriptionID = subscriptionID
	}
	if location != "" {
		cfg.Location = location
	}

	cfg.TrimSpace()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TrimSpace removes all leading and trailing white spaces.
func (cfg *Config) TrimSpace() {
	cfg.TenantID = strings.TrimSpace(cfg.TenantID)
	cfg.SubscriptionID = strings.TrimSpace(cfg.SubscriptionID)
	cfg.Location = strings.TrimSpace(cfg.Location)
	cfg.CloudEnvironment = strings.TrimSpace(cfg.CloudEnvironment)
}

func (cfg *Config) validate() error {
	if cfg.SubscriptionID == "" {
		return fmt.Errorf("subscription ID not set, use --subscription or AZURE_SUBSCRIPTION_ID")
	}
	if cfg.Location == "" {
		return fmt.Errorf("location not set, use --location or LOCATION")
	}
	return nil
}
