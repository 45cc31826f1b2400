package verify

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// VerifySHA256 checks a payload against a SHA256 checksum file in the
// conventional "hash  filename" format.
func VerifySHA256(payloadPath, checksumPath string) error {
	actual, err := calculateSHA256(payloadPath)
	if err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	expected, err := findChecksum(checksumPath, filepath.Base(payloadPath))
	if err != nil {
		return fmt.Errorf("find checksum: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return &IntegrityError{
			Path:   payloadPath,
			Reason: fmt.Sprintf("checksum mismatch: actual %s, expected %s", actual, expected),
		}
	}
	return nil
}

// calculateSHA256 calculates the SHA256 checksum of a file.
func calculateSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum
// file. Lines that do not match "hash filename" are skipped. Single-hash
// files (just the digest, no filename) are accepted too.
func findChecksum(checksumPath, filename string) (string, error) {
	f, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer f.Close()

	var sole string
	lines := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines++

		parts := strings.Fields(line)
		if len(parts) == 1 {
			sole = parts[0]
			continue
		}

		// Entries may carry paths or a leading '*' (binary mode marker).
		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if lines == 1 && sole != "" {
		return sole, nil
	}
	return "", fmt.Errorf("checksum not found for %s", filename)
}
