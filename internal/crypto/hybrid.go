// Package crypto implements the hybrid encryption scheme used for exam
// result bundles: a fresh 2048-bit RSA-OAEP (SHA-256) keypair wraps a fresh
// AES-256-GCM key, the symmetric key encrypts the JSON payload, and the
// private key ships inside the bundle as a JWK. The algorithms and the
// number-array JSON encoding are fixed: the bundle must stay decryptable by
// the standalone viewer document and by archives produced before this
// service existed.
//
// Because the private key travels with the ciphertext, the construction is
// tamper-evident rather than confidential against whoever holds the archive.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/tetex-tech/exam-service/internal/models"
)

const (
	rsaKeyBits  = 2048
	aesKeyBytes = 32
	nonceBytes  = 12

	// JWA name matching what the browser viewer imports the key as.
	keyAlgorithm = "RSA-OAEP-256"
)

// EncryptPayload serializes payload to JSON and produces a complete
// encrypted bundle with fresh key material. The context is consulted between
// the expensive steps so a caller-imposed deadline can abort the pass.
func EncryptPayload(ctx context.Context, payload interface{}) (*models.EncryptedBundle, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	keyPair, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aesKey := make([]byte, aesKeyBytes)
	if _, err := rand.Read(aesKey); err != nil {
		return nil, fmt.Errorf("failed to generate symmetric key: %w", err)
	}

	iv, ciphertext, err := encryptAESGCM(plaintext, aesKey)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &keyPair.PublicKey, aesKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap symmetric key: %w", err)
	}

	privateJWK, err := exportPrivateKeyJWK(keyPair)
	if err != nil {
		return nil, err
	}

	return &models.EncryptedBundle{
		Payload: models.EncryptedPayload{
			IV:   iv,
			Data: ciphertext,
		},
		Keys: models.KeyEnvelope{
			EncryptedAESKey: wrappedKey,
			PrivateKey:      privateJWK,
		},
	}, nil
}

// DecryptBundle is the inverse path: import the embedded private key, unwrap
// the symmetric key and open the ciphertext. Returns the plaintext JSON.
func DecryptBundle(ctx context.Context, payload models.EncryptedPayload, keys models.KeyEnvelope) ([]byte, error) {
	privateKey, err := importPrivateKeyJWK(keys.PrivateKey)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aesKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, privateKey, keys.EncryptedAESKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap symmetric key: %w", err)
	}
	if len(aesKey) != aesKeyBytes {
		return nil, fmt.Errorf("unwrapped key has unexpected length %d", len(aesKey))
	}

	plaintext, err := decryptAESGCM(payload.Data, payload.IV, aesKey)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

func encryptAESGCM(plaintext, key []byte) (iv, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	iv = make([]byte, nonceBytes)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the auth tag to the ciphertext, matching the wire format
	// the viewer expects.
	ciphertext = gcm.Seal(nil, iv, plaintext, nil)
	return iv, ciphertext, nil
}

func decryptAESGCM(ciphertext, iv, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("nonce has unexpected length %d", len(iv))
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return plaintext, nil
}

func exportPrivateKeyJWK(key *rsa.PrivateKey) (json.RawMessage, error) {
	jwkKey, err := jwk.FromRaw(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWK: %w", err)
	}
	if err := jwkKey.Set(jwk.AlgorithmKey, keyAlgorithm); err != nil {
		return nil, fmt.Errorf("failed to set JWK algorithm: %w", err)
	}

	exported, err := json.Marshal(jwkKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JWK: %w", err)
	}
	return exported, nil
}

func importPrivateKeyJWK(raw json.RawMessage) (*rsa.PrivateKey, error) {
	jwkKey, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK: %w", err)
	}

	var privateKey rsa.PrivateKey
	if err := jwkKey.Raw(&privateKey); err != nil {
		return nil, fmt.Errorf("failed to materialize private key: %w", err)
	}
	return &privateKey, nil
}
