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

// Package template holds the deployment template and the bootstrap script as
// versioned artifacts with named substitution slots, plus the assembly of the
// parameter set forwarded to ARM.
package template

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"regexp"
	texttemplate "text/template"

	"github.com/azure/dockerhost-provisioner/pkg/config"
)

//go:embed azuredeploy.json.tmpl
var armTemplate string

//go:embed bootstrap.sh.tmpl
var bootstrapScript string

// adminUserPattern guards the one value spliced into the bootstrap script.
// Validated again here so the script stays shell-injection-free even if a
// caller skips config validation.
var adminUserPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

type scriptSlots struct {
	AdminUsername string
	// KeyAuth toggles the sshd PasswordAuthentication setting: password login
	// is enabled only when no key was supplied.
	KeyAuth bool
}

type templateSlots struct {
	ScriptBase64 string
}

// RenderBootstrapScript fills the script slots and returns the shell script
// executed once on first boot.
func RenderBootstrapScript(adminUsername string, keyAuth bool) (string, error) {
	if !adminUserPattern.MatchString(adminUsername) {
		return "", fmt.Errorf("admin username %q is not a safe login name", adminUsername)
	}

	tmpl, err := texttemplate.New("bootstrap").Parse(bootstrapScript)
	if err != nil {
		return "", fmt.Errorf("parsing bootstrap script template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, scriptSlots{AdminUsername: adminUsername, KeyAuth: keyAuth}); err != nil {
		return "", fmt.Errorf("rendering bootstrap script: %w", err)
	}
	return buf.String(), nil
}

// Render returns the deployment template body with the bootstrap script
// embedded into the CustomScript extension.
func Render(adminUsername string, keyAuth bool) ([]byte, error) {
	script, err := RenderBootstrapScript(adminUsername, keyAuth)
	if err != nil {
		return nil, err
	}

	tmpl, err := texttemplate.New("azuredeploy").Parse(armTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing deployment template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, templateSlots{
		ScriptBase64: base64.StdEncoding.EncodeToString([]byte(script)),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering deployment template: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildParameters assembles the ARM parameter set. Exactly one of the public
// key and the password is forwarded; the unused one is omitted and falls back
// to the template's empty default.
func BuildParameters(cfg *config.Config, publicKey, password, sourceIP string) map[string]interface{} {
	params := map[string]interface{}{
		"location":          armValue(cfg.Location),
		"vmName":            armValue(cfg.VMName),
		"vmSize":            armValue(cfg.VMSize),
		"adminUsername":     armValue(cfg.AdminUsername),
		"sourceMyIpAddress": armValue(sourceIP),
		"vnetName":          armValue(cfg.VnetName),
		"subnetName":        armValue(cfg.SubnetName),
		"publicIpName":      armValue(cfg.PublicIPName),
		"nsgName":           armValue(cfg.NSGName),
		"nicName":           armValue(cfg.NICName),
	}

	if cfg.KeyAuth() {
		params["adminSshPublicKey"] = armValue(publicKey)
	} else {
		params["adminPassword"] = armValue(password)
	}
	return params
}

func armValue(v string) map[string]interface{} {
	return map[string]interface{}{"value": v}
}
