package keygen

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// ErrPassphraseProtected is returned for keys that need a passphrase.
var ErrPassphraseProtected = errors.New("private key is passphrase protected")

// Identity describes a private key file.
type Identity struct {
	Path string
	// Type is the SSH key algorithm, e.g. "ssh-rsa".
	Type string
	// Fingerprint is the SHA256 fingerprint of the public key.
	Fingerprint string
	// TooOpen is set when group or others can read the file; ssh refuses
	// such keys.
	TooOpen bool
}

// Inspect reads and parses a PEM or OpenSSH private key.
func Inspect(path string) (*Identity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("identity file %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%s: %w", path, ErrPassphraseProtected)
		}
		return nil, fmt.Errorf("failed to parse identity file %s: %w", path, err)
	}

	pub := signer.PublicKey()
	return &Identity{
		Path:        path,
		Type:        pub.Type(),
		Fingerprint: ssh.FingerprintSHA256(pub),
		TooOpen:     info.Mode().Perm()&0o077 != 0,
	}, nil
}

// Fingerprint returns the SHA256 fingerprint of the key at path.
func Fingerprint(path string) (string, error) {
	id, err := Inspect(path)
	if err != nil {
		return "", err
	}
	return id.Fingerprint, nil
}
