package models

import (
	"encoding/json"
	"fmt"
)

// ByteArray marshals as a JSON array of byte values ([12,0,255,...]) instead
// of Go's default base64 string. The archive entries are read by a plain
// JavaScript viewer that expects number arrays, so the wire shape is fixed.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	nums := make([]int, len(b))
	for i, v := range b {
		nums[i] = int(v)
	}
	return json.Marshal(nums)
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	out := make([]byte, len(nums))
	for i, v := range nums {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte array element %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// EncryptedPayload is the encrypted_data.json archive entry: the AES-GCM
// nonce and the ciphertext (tag included).
type EncryptedPayload struct {
	IV   ByteArray `json:"iv"`
	Data ByteArray `json:"data"`
}

// KeyEnvelope is the key.json archive entry: the RSA-wrapped symmetric key
// and the RSA private key itself in JWK form. Shipping the private key inside
// the same archive makes the bundle tamper-evident rather than confidential
// against its recipient.
type KeyEnvelope struct {
	EncryptedAESKey ByteArray       `json:"encryptedAesKey"`
	PrivateKey      json.RawMessage `json:"privateKey"`
}

// EncryptedBundle is the full output of one hybrid-encryption pass.
type EncryptedBundle struct {
	Payload EncryptedPayload
	Keys    KeyEnvelope
}
