package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"baatcheet/tools/errs"
)

// Store writes data-URI images to a local directory served under baseURL.
// It stands in for the blob host; swap the struct out for a real object
// store without touching the handlers.
type Store struct {
	dir     string
	baseURL string
}

var extByMime = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Dir() string { return s.dir }

// SaveDataURI decodes "data:image/<type>;base64,<payload>" and returns the
// public URL of the stored object.
func (s *Store) SaveDataURI(data string) (string, error) {
	mime, payload, ok := splitDataURI(data)
	if !ok {
		return "", errs.ErrArgs.WithDetail("not a data URI")
	}
	ext, ok := extByMime[mime]
	if !ok {
		return "", errs.ErrMediaUnsupported.WithDetail(mime)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errs.ErrArgs.WithDetail("bad base64 payload")
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return "", errs.Wrap(err)
	}
	return s.baseURL + "/" + name, nil
}

func splitDataURI(data string) (mime, payload string, ok bool) {
	if !strings.HasPrefix(data, "data:") {
		return "", "", false
	}
	rest := data[len("data:"):]
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return "", "", false
	}
	return rest[:sep], rest[sep+len(";base64,"):], true
}
