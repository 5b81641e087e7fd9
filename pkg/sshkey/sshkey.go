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

// Package sshkey locates or generates the key pair used for remote login.
// The files belong to the local filesystem, not to this tool; existing
// material is reused unchanged.
package sshkey

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"k8s.io/klog/v2"
)

const rsaBits = 4096

// EnsureKeyPair returns the public key text for the pair at privateKeyPath,
// generating a new passphrase-less RSA pair first when either file is
// missing. It reports whether a pair was generated.
func EnsureKeyPair(privateKeyPath string) (publicKey string, generated bool, err error) {
	publicKeyPath := privateKeyPath + ".pub"

	if exists(privateKeyPath) && exists(publicKeyPath) {
		content, err := os.ReadFile(publicKeyPath)
		if err != nil {
			return "", false, errors.Wrap(err, "reading existing public key")
		}
		klog.V(2).InfoS("reusing existing key pair", "path", privateKeyPath)
		return strings.TrimSpace(string(content)), false, nil
	}

	privPEM, pub, err := generateKeyPair()
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(filepath.Dir(privateKeyPath), 0o700); err != nil {
		return "", false, errors.Wrap(err, "creating key directory")
	}
	if err := os.WriteFile(privateKeyPath, privPEM, 0o600); err != nil {
		return "", false, errors.Wrap(err, "writing private key")
	}
	if err := os.WriteFile(publicKeyPath, pub, 0o644); err != nil {
		return "", false, errors.Wrap(err, "writing public key")
	}
	klog.InfoS("generated new key pair", "path", privateKeyPath)

	return strings.TrimSpace(string(pub)), true, nil
}

func generateKeyPair() (privatePEM, public []byte, err error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaBits)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating RSA key")
	}
	if err := privateKey.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "validating RSA key")
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	sshPublicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "deriving ssh public key")
	}
	public = ssh.MarshalAuthorizedKey(sshPublicKey)

	return privatePEM, public, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
