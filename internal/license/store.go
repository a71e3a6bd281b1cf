// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// BlobFileName is the encrypted license blob inside the config dir.
	BlobFileName = ".license"

	// AnchorRelPath locates the anchor file relative to the directory
	// above the running executable. It is deliberately an unrelated
	// build file: wiping the config dir alone does not wipe the license.
	AnchorRelPath = "test/CMakeLists.txt"

	anchorPrefix = "# PAYWALL_UUID: "
)

var (
	anchorStripPattern = regexp.MustCompile(`# PAYWALL_UUID: [a-fA-F0-9\-]+[ \t]*\n?`)
	anchorReadPattern  = regexp.MustCompile(`# PAYWALL_UUID: ([a-fA-F0-9\-]+)`)
)

// DefaultBlobPath resolves the per-user encrypted blob location,
// creating the config directory if needed.
func DefaultBlobPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "seedvault")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, BlobFileName), nil
}

// DefaultAnchorPath resolves the anchor file from the running executable:
// one level above the binary's directory, then AnchorRelPath.
func DefaultAnchorPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(filepath.Dir(exe))
	return filepath.Join(parent, filepath.FromSlash(AnchorRelPath)), nil
}

// Store persists a license as two independent artifacts: the encrypted blob
// and a plaintext anchor token embedded in an unrelated file. Neither
// artifact alone reconstructs a valid license.
type Store struct {
	blobPath   string
	anchorPath string
	codec      Codec
	fp         Fingerprinter
}

func NewStore(blobPath, anchorPath string, codec Codec, fp Fingerprinter) *Store {
	return &Store{
		blobPath:   blobPath,
		anchorPath: anchorPath,
		codec:      codec,
		fp:         fp,
	}
}

// SaveRecord writes the blob keyed by the record's own hardware id, then the
// anchor. A blob failure short-circuits before the anchor is touched; the
// overall result is true only when both writes succeed. Any previous blob
// and anchor are overwritten unconditionally.
func (s *Store) SaveRecord(rec Record) bool {
	if rec.IsEmpty() {
		log.Debug().Msg("refusing to save empty license record")
		return false
	}

	encoded := s.codec.Encode(rec.marshal(), DeriveKey(rec.HardwareID))
	if encoded == "" {
		log.Debug().Msg("license encoding produced empty output")
		return false
	}

	if err := os.WriteFile(s.blobPath, []byte(encoded), 0600); err != nil {
		log.Warn().Err(err).Str("path", s.blobPath).Msg("failed to write license blob")
		return false
	}

	return s.WriteAnchor(rec.ActivationID)
}

// LoadRecord reads and decodes the blob. The decode key is derived from the
// current machine's fingerprint, not from anything on disk, so a blob
// written on another machine decodes to garbage and comes back empty.
func (s *Store) LoadRecord() Record {
	data, err := os.ReadFile(s.blobPath)
	if err != nil || len(data) == 0 {
		return Record{}
	}

	mac := s.fp.HardwareID()
	if mac == "" {
		return Record{}
	}

	decoded := s.codec.Decode(strings.TrimSpace(string(data)), DeriveKey(mac))
	if decoded == "" {
		return Record{}
	}
	return parseRecord(decoded)
}

// WriteAnchor embeds the activation id as a marker line at the top of the
// anchor file. Any prior marker line is removed first; every other byte of
// the file is preserved. Missing file or directories are created.
func (s *Store) WriteAnchor(activationID string) bool {
	if activationID == "" {
		return false
	}

	if err := os.MkdirAll(filepath.Dir(s.anchorPath), 0755); err != nil {
		log.Warn().Err(err).Str("path", s.anchorPath).Msg("failed to create anchor directory")
		return false
	}

	content, err := os.ReadFile(s.anchorPath)
	if err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", s.anchorPath).Msg("failed to read anchor file")
		return false
	}

	remaining := anchorStripPattern.ReplaceAllString(string(content), "")
	marker := anchorPrefix + activationID + "\n"

	if err := os.WriteFile(s.anchorPath, []byte(marker+remaining), 0644); err != nil {
		log.Warn().Err(err).Str("path", s.anchorPath).Msg("failed to write anchor file")
		return false
	}

	log.Debug().Str("path", s.anchorPath).Msg("anchor token written")
	return true
}

// ReadAnchor returns the anchor token, or "" when the file or marker is
// absent.
func (s *Store) ReadAnchor() string {
	content, err := os.ReadFile(s.anchorPath)
	if err != nil {
		return ""
	}
	m := anchorReadPattern.FindSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

// BlobPath returns where the encrypted blob lives.
func (s *Store) BlobPath() string { return s.blobPath }

// AnchorPath returns where the anchor file lives.
func (s *Store) AnchorPath() string { return s.anchorPath }
