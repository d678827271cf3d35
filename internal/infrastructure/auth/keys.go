package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// LoadRSAPrivateKeyFromPEM accepts PKCS#1 and PKCS#8 encodings.
func LoadRSAPrivateKeyFromPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err == nil {
		return key, nil
	}
	parsed, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err2 != nil {
		return nil, err
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("PEM is not an RSA private key")
	}
	return rsaKey, nil
}

// LoadSigningKey reads the key at path. With an empty path it generates an
// ephemeral key, so tokens do not survive a restart.
func LoadSigningKey(path string) (key *rsa.PrivateKey, ephemeral bool, err error) {
	if path == "" {
		key, err = rsa.GenerateKey(rand.Reader, 2048)
		return key, true, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read signing key: %w", err)
	}
	key, err = LoadRSAPrivateKeyFromPEM(b)
	return key, false, err
}
