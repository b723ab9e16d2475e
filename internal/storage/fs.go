package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs on local disk. SignedURL points at publicBase, which
// the server mounts over Get (see the /media route); there is no signing.
type FSStore struct {
	base       string
	publicBase string
}

func NewFSStore(base, publicBase string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if publicBase == "" {
		publicBase = "/media"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

var ErrBadKey = errors.New("invalid blob key")

// resolve keeps keys inside base.
func (s *FSStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", ErrBadKey
	}
	return filepath.Join(s.base, filepath.FromSlash(clean)), nil
}

func (s *FSStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) SignedURL(_ context.Context, key string) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	return s.publicBase + "/" + (&url.URL{Path: strings.TrimLeft(key, "/")}).EscapedPath(), nil
}
