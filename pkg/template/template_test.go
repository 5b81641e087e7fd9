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

package template

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/dockerhost-provisioner/pkg/config"
)

func TestRenderBootstrapScript(t *testing.T) {
	testCases := []struct {
		name        string
		keyAuth     bool
		contains    string
		notContains string
	}{
		{
			name:        "key auth keeps password login off",
			keyAuth:     true,
			contains:    "PasswordAuthentication no",
			notContains: "PasswordAuthentication yes",
		},
		{
			name:        "password auth enables password login",
			keyAuth:     false,
			contains:    "PasswordAuthentication yes",
			notContains: "PasswordAuthentication no",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			script, err := RenderBootstrapScript("azureuser", tc.keyAuth)
			require.NoError(t, err)
			assert.Contains(t, script, "usermod -aG docker azureuser")
			assert.Contains(t, script, "download.docker.com")
			assert.Contains(t, script, "apt-get update")
			assert.Contains(t, script, tc.contains)
			assert.NotContains(t, script, tc.notContains)
		})
	}
}

func TestRenderBootstrapScriptRejectsUnsafeUsername(t *testing.T) {
	for _, username := range []string{"", "Root", "user;id", "user name", "$(whoami)", "user\ntouch /tmp/x"} {
		_, err := RenderBootstrapScript(username, true)
		assert.Error(t, err, "username %q must be rejected", username)
	}
}

func TestRenderEmbedsScript(t *testing.T) {
	body, err := Render("azureuser", true)
	require.NoError(t, err)

	var tmpl struct {
		Parameters map[string]json.RawMessage `json:"parameters"`
		Outputs    map[string]json.RawMessage `json:"outputs"`
		Resources  []struct {
			Type       string `json:"type"`
			Properties struct {
				ProtectedSettings struct {
					Script string `json:"script"`
				} `json:"protectedSettings"`
			} `json:"properties"`
		} `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(body, &tmpl), "rendered template must stay valid JSON")

	for _, param := range []string{
		"location", "vmName", "vmSize", "adminUsername", "adminPassword", "adminSshPublicKey",
		"sourceMyIpAddress", "vnetName", "subnetName", "publicIpName", "nsgName", "nicName",
	} {
		assert.Contains(t, tmpl.Parameters, param)
	}
	for _, output := range []string{"vmName", "adminUsername", "publicIpAddress", "fqdn", "sshCommand"} {
		assert.Contains(t, tmpl.Outputs, output)
	}

	var script string
	for _, res := range tmpl.Resources {
		if res.Type == "Microsoft.Compute/virtualMachines/extensions" {
			script = res.Properties.ProtectedSettings.Script
		}
	}
	require.NotEmpty(t, script, "extension must carry the bootstrap script")

	decoded, err := base64.StdEncoding.DecodeString(script)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(decoded), "#!/bin/bash"))
	assert.Contains(t, string(decoded), "docker-ce")
}

func TestBuildParametersKeyMode(t *testing.T) {
	cfg := config.New("westeurope", "devbox")

	params := BuildParameters(cfg, "ssh-rsa AAAA test@host", "", "203.0.113.7")

	assert.Equal(t, map[string]interface{}{"value": "ssh-rsa AAAA test@host"}, params["adminSshPublicKey"])
	assert.NotContains(t, params, "adminPassword", "key mode must not forward a password")
	assert.Equal(t, map[string]interface{}{"value": "203.0.113.7"}, params["sourceMyIpAddress"])
	assert.Equal(t, map[string]interface{}{"value": "devbox"}, params["vmName"])
}

func TestBuildParametersPasswordMode(t *testing.T) {
	cfg := config.New("westeurope", "devbox")
	cfg.AuthMode = config.AuthModePassword

	params := BuildParameters(cfg, "", "hunter2hunter2", "203.0.113.7")

	assert.Equal(t, map[string]interface{}{"value": "hunter2hunter2"}, params["adminPassword"])
	assert.NotContains(t, params, "adminSshPublicKey", "password mode must not forward a public key")
}
