package library

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/document"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

var ErrInvalidDocument = errors.New("invalid quiz document")

const (
	docName         = "quiz.xml"
	defaultMaxBytes = 32 << 20
)

// Upload is a file sent along with a quiz document, usually an image the
// document refers to by name.
type Upload struct {
	Name string
	Body io.Reader
}

// Service keeps uploaded quizzes: metadata in Store, files in the blob
// store under library/<id>/.
type Service struct {
	store    Store
	blobs    storage.BlobStore
	maxBytes int64 // per stored file
}

func NewService(store Store, blobs storage.BlobStore) *Service {
	return &Service{store: store, blobs: blobs, maxBytes: defaultMaxBytes}
}

func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.store.List(ctx)
}

// ImportDocument stores a bare XML document plus any images sent with it.
func (s *Service) ImportDocument(ctx context.Context, title string, doc []byte, images []Upload) (Entry, error) {
	accept := func(ref string) (string, bool) { return ref, true }
	if _, err := document.DecodeWith(bytes.NewReader(doc), accept); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	id := uuid.NewString()
	prefix := "library/" + id
	docKey, err := s.blobs.Put(prefix+"/"+docName, bytes.NewReader(doc))
	if err != nil {
		return Entry{}, err
	}
	for _, im := range images {
		name := cleanName(im.Name)
		if name == "" || name == docName {
			continue
		}
		if _, err := s.blobs.Put(prefix+"/"+name, s.capped(im.Body)); err != nil {
			_ = s.blobs.Delete(prefix)
			return Entry{}, err
		}
	}
	return s.register(ctx, id, title, docKey)
}

// ImportArchive unpacks a zip holding one quiz document at its root and the
// images it refers to, keeping their relative paths. A root file named
// quiz.xml wins over other root XML files.
func (s *Service) ImportArchive(ctx context.Context, title string, r io.ReaderAt, size int64) (Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	id := uuid.NewString()
	prefix := "library/" + id
	var docKey string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := cleanName(f.Name)
		if name == "" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = s.blobs.Delete(prefix)
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		key, err := s.blobs.Put(prefix+"/"+name, s.capped(rc))
		_ = rc.Close()
		if err != nil {
			_ = s.blobs.Delete(prefix)
			return Entry{}, err
		}
		if !strings.Contains(name, "/") && strings.EqualFold(path.Ext(name), ".xml") {
			if docKey == "" || name == docName {
				docKey = key
			}
		}
	}
	if docKey == "" {
		_ = s.blobs.Delete(prefix)
		return Entry{}, fmt.Errorf("%w: archive has no quiz document", ErrInvalidDocument)
	}
	return s.register(ctx, id, title, docKey)
}

func (s *Service) register(ctx context.Context, id, title, docKey string) (Entry, error) {
	prefix := "library/" + id
	q, err := s.load(docKey)
	if err != nil {
		_ = s.blobs.Delete(prefix)
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	e := Entry{
		ID:        id,
		Title:     title,
		Letters:   len(q.Letters),
		DocKey:    docKey,
		CreatedAt: time.Now(),
	}
	if e.Title == "" {
		e.Title = id
	}
	for _, qq := range q.Questions {
		e.Images += len(qq.Images)
	}
	if err := s.store.Put(ctx, e); err != nil {
		_ = s.blobs.Delete(prefix)
		return Entry{}, err
	}
	return e, nil
}

// Open loads a stored quiz with its images resolved inside the blob store.
func (s *Service) Open(ctx context.Context, id string) (quiz.Quiz, Entry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return quiz.Quiz{}, Entry{}, err
	}
	q, err := s.load(e.DocKey)
	if err != nil {
		return quiz.Quiz{}, Entry{}, fmt.Errorf("load quiz %s: %w", id, err)
	}
	return q, e, nil
}

// OpenFile returns a stored file of quiz id, named relative to its directory.
func (s *Service) OpenFile(ctx context.Context, id, name string) (io.ReadCloser, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	name = cleanName(name)
	if name == "" {
		return nil, ErrNotFound
	}
	rc, err := s.blobs.Get("library/" + id + "/" + name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	return s.blobs.Delete("library/" + id)
}

func (s *Service) load(docKey string) (quiz.Quiz, error) {
	p, err := s.blobs.Path(docKey)
	if err != nil {
		return quiz.Quiz{}, err
	}
	return document.LoadWith(p, document.DirResolver(filepath.Dir(p)))
}

// capped fails the read once more than maxBytes arrive, so an oversized
// file is never stored cut short.
func (s *Service) capped(r io.Reader) io.Reader {
	return &capReader{r: io.LimitReader(r, s.maxBytes+1), max: s.maxBytes, left: s.maxBytes}
}

type capReader struct {
	r         io.Reader
	max, left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, fmt.Errorf("%w: file larger than %d bytes", ErrInvalidDocument, c.max)
	}
	return n, err
}

// cleanName keeps a relative, slash separated name that cannot leave the
// quiz's directory.
func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
}

// TitleFromFilename derives a display title from an uploaded file name.
func TitleFromFilename(name string) string {
	base := path.Base(filepath.ToSlash(name))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
