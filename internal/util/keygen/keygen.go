// Package keygen generates RSA key pairs for key-based hub access.
//
// The private key is PEM-encoded PKCS#1, ready for hubward's
// private_key_file setting; the public key is one OpenSSH
// authorized_keys line for the hub principal.
package keygen

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// DefaultBits is the key size used by `hubward keys generate` unless
// overridden.
const DefaultBits = 4096

// KeyPair holds an RSA key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the RSA private key in PEM-encoded PKCS#1 format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
// Common bit sizes are 2048 (minimum recommended) and 4096 (high security).
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privDER := x509.MarshalPKCS1PrivateKey(privateKey)
	privBlock := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privDER,
	}
	privateKeyPEM := pem.EncodeToMemory(&privBlock)

	publicRsaKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	pubKeyBytes := ssh.MarshalAuthorizedKey(publicRsaKey)

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  pubKeyBytes,
	}, nil
}

// AuthorizedKey returns the public key as an authorized_keys line with
// the given trailing comment.
func (kp *KeyPair) AuthorizedKey(comment string) []byte {
	line := bytes.TrimRight(kp.PublicKey, "\n")
	if comment != "" {
		line = append(line, ' ')
		line = append(line, comment...)
	}
	return append(line, '\n')
}

// WriteFiles writes the private key to privatePath (0600) and the
// public key next to it with a .pub suffix (0644).
func (kp *KeyPair) WriteFiles(privatePath, comment string) error {
	if err := os.WriteFile(privatePath, kp.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(privatePath+".pub", kp.AuthorizedKey(comment), 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}
