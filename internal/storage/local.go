// internal/storage/local.go
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"account-opening/internal/common/config"
)

// Store is the opaque file-storage collaborator. The workflow only requires
// store/resolve/delete semantics plus signed URLs for download redirects.
type Store interface {
	Store(fileName string, r io.Reader) (string, error)
	Resolve(fileName string) string
	Delete(path string) error
	SignedURL(path string) (string, error)
}

// LocalStore keeps files on the local filesystem under a base path and signs
// download URLs with an HMAC so the redirect target cannot be forged.
type LocalStore struct {
	basePath      string
	publicBaseURL string
	signingSecret []byte
	urlTTL        time.Duration
}

func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.BasePath, 0o750); err != nil {
		return nil, fmt.Errorf("create storage base path: %w", err)
	}
	return &LocalStore{
		basePath:      cfg.BasePath,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		signingSecret: []byte(cfg.SigningSecret),
		urlTTL:        config.GetDuration(cfg.SignedURLTTL),
	}, nil
}

func (s *LocalStore) Store(fileName string, r io.Reader) (string, error) {
	path := s.Resolve(fileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Resolve(fileName string) string {
	return filepath.Join(s.basePath, filepath.Base(fileName))
}

func (s *LocalStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// SignedURL returns a time-limited download URL for a stored file.
func (s *LocalStore) SignedURL(path string) (string, error) {
	name := filepath.Base(path)
	expires := time.Now().Add(s.urlTTL).Unix()
	sig := s.sign(name, expires)

	return fmt.Sprintf("%s/%s?expires=%d&sig=%s",
		s.publicBaseURL, url.PathEscape(name), expires, sig), nil
}

// VerifySignature checks a signed URL's name/expiry/signature triple.
func (s *LocalStore) VerifySignature(name string, expires int64, sig string) bool {
	if time.Now().Unix() > expires {
		return false
	}
	expected := s.sign(filepath.Base(name), expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *LocalStore) sign(name string, expires int64) string {
	mac := hmac.New(sha256.New, s.signingSecret)
	mac.Write([]byte(name))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
