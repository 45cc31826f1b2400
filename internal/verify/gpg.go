package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// VerifyGPG checks a detached GPG signature over a payload against a
// keyring file. Both armored and binary signatures and keyrings are
// accepted.
func VerifyGPG(payloadPath, signaturePath, keyringPath string) error {
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	payload, err := os.Open(payloadPath)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	defer payload.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, payload, sig, nil)
	if err != nil {
		payload.Seek(0, io.SeekStart)
		sig.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, payload, sig, nil)
	}
	if err != nil {
		return &IntegrityError{
			Path:   payloadPath,
			Reason: fmt.Sprintf("signature verification failed: %v", err),
		}
	}
	return nil
}

// loadKeyring loads a GPG keyring, trying the armored format first.
func loadKeyring(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		f.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}
