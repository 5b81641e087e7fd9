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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// AuthModeKey selects SSH public-key login for the admin user.
	AuthModeKey = "key"
	// AuthModePassword selects password login for the admin user.
	AuthModePassword = "password"

	// SourceIPDetect asks the tool to resolve the operator's public IP via the
	// external echo endpoint.
	SourceIPDetect = "detect"
)

var (
	// sourceIPPattern matches a dotted-quad address with an optional prefix
	// length. Octet range is checked separately.
	sourceIPPattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})(?:/(\d{1,2}))?$`)

	// usernamePattern is the conservative POSIX login-name shape. The admin
	// username is spliced into the bootstrap script, so anything outside this
	// set is refused outright.
	usernamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)
)

// Config carries every parameter of a single provisioning run. It is
// constructed and validated once at startup and passed explicitly; nothing
// reads it as ambient state.
type Config struct {
	Location      string `validate:"required"`
	ResourceGroup string `validate:"required"`

	VMName        string `validate:"required,hostname_rfc1123"`
	VMSize        string `validate:"required"`
	AdminUsername string `validate:"required,unixuser"`

	// AuthMode decides which credential material governs login. Exactly one of
	// the SSH key and the password is forwarded to the deployment.
	AuthMode      string `validate:"required,oneof=key password"`
	AdminPassword string
	SSHKeyPath    string `validate:"required_if=AuthMode key"`

	// SourceIPAddress scopes the NSG inbound rules. Either an explicit address
	// or CIDR block, or the "detect" sentinel.
	SourceIPAddress string `validate:"required"`

	VnetName     string `validate:"required"`
	SubnetName   string `validate:"required"`
	PublicIPName string `validate:"required"`
	NSGName      string `validate:"required"`
	NICName      string `validate:"required"`
}

// New returns a Config with defaults derived from the VM name filled in.
func New(location, vmName string) *Config {
	if vmName == "" {
		vmName = "dockerhost"
	}
	return &Config{
		Location:        location,
		ResourceGroup:   vmName + "-rg",
		VMName:          vmName,
		VMSize:          "Standard_B2s",
		AdminUsername:   "azureuser",
		AuthMode:        AuthModeKey,
		SSHKeyPath:      defaultSSHKeyPath(),
		SourceIPAddress: SourceIPDetect,
		VnetName:        vmName + "-vnet",
		SubnetName:      vmName + "-subnet",
		PublicIPName:    vmName + "-ip",
		NSGName:         vmName + "-nsg",
		NICName:         vmName + "-nic",
	}
}

func defaultSSHKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ssh", "id_rsa")
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}

// Validate checks the config against its struct tags plus the rules that do
// not fit a tag: the source IP must be a valid address or CIDR block unless it
// is the detect sentinel.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("unixuser", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return err
	}

	if c.SourceIPAddress != SourceIPDetect {
		if err := ValidateSourceIP(c.SourceIPAddress); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSourceIP accepts a dotted-quad address, optionally with a /0-32
// prefix length. Every other shape is rejected.
func ValidateSourceIP(value string) error {
	m := sourceIPPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return fmt.Errorf("source IP %q is not a dotted-quad address or CIDR block", value)
	}
	for _, octet := range m[1:5] {
		if len(octet) > 1 && octet[0] == '0' {
			return fmt.Errorf("source IP %q has a zero-padded octet", value)
		}
		n := 0
		for _, ch := range octet {
			n = n*10 + int(ch-'0')
		}
		if n > 255 {
			return fmt.Errorf("source IP %q has an octet out of range", value)
		}
	}
	if m[5] != "" {
		prefix := 0
		for _, ch := range m[5] {
			prefix = prefix*10 + int(ch-'0')
		}
		if prefix > 32 {
			return fmt.Errorf("source IP %q has a prefix length out of range", value)
		}
	}
	return nil
}

// KeyAuth reports whether SSH public-key login governs this run.
func (c *Config) KeyAuth() bool {
	return c.AuthMode == AuthModeKey
}

// PublicKeyPath is the conventional sibling of the private key file.
func (c *Config) PublicKeyPath() string {
	return c.SSHKeyPath + ".pub"
}
