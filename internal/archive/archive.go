// Package archive assembles and opens the distributable result archive: a
// zip container holding the encrypted payload, the key envelope and a
// standalone viewer document able to decrypt the other two entries in any
// browser.
package archive

import (
	"archive/zip"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tetex-tech/exam-service/internal/models"
)

// Entry names are a wire contract shared with the decoder and the viewer.
const (
	EncryptedDataEntry = "encrypted_data.json"
	KeyEntry           = "key.json"
	ViewerEntry        = "viewer.html"
)

//go:embed viewer.html
var viewerDocument []byte

// Filename returns the download name for a result archive.
func Filename(examID, username string) string {
	return fmt.Sprintf("exam_result_%s_%s.zip", examID, username)
}

// Assemble packages an encrypted bundle into the zip container.
func Assemble(bundle *models.EncryptedBundle) ([]byte, error) {
	encryptedData, err := json.Marshal(bundle.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", EncryptedDataEntry, err)
	}
	keyData, err := json.Marshal(bundle.Keys)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", KeyEntry, err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{EncryptedDataEntry, encryptedData},
		{KeyEntry, keyData},
		{ViewerEntry, viewerDocument},
	}
	for _, entry := range entries {
		f, err := w.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", entry.name, err)
		}
		if _, err := f.Write(entry.data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", entry.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Open reads an uploaded archive and returns its two required entries. The
// viewer document is ignored on the inbound path.
func Open(archiveBytes []byte) (*models.EncryptedBundle, error) {
	r, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	encryptedData, err := readEntry(r, EncryptedDataEntry)
	if err != nil {
		return nil, err
	}
	keyData, err := readEntry(r, KeyEntry)
	if err != nil {
		return nil, err
	}

	var payload models.EncryptedPayload
	if err := json.Unmarshal(encryptedData, &payload); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", EncryptedDataEntry, err)
	}
	var keys models.KeyEnvelope
	if err := json.Unmarshal(keyData, &keys); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", KeyEntry, err)
	}

	return &models.EncryptedBundle{Payload: payload, Keys: keys}, nil
}

func readEntry(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("archive entry missing: %s", name)
}
