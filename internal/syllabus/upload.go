// Package syllabus uploads a course syllabus PDF to the backend, which
// extracts the topics it covers.
package syllabus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/examwhisperer/whisper/internal/backend"
	"github.com/examwhisperer/whisper/internal/logger"
)

// MaxFileSize is the largest syllabus accepted.
const MaxFileSize = 20 << 20

var (
	ErrNotPDF   = errors.New("syllabus must be a .pdf file")
	ErrTooLarge = fmt.Errorf("syllabus is larger than %d MB", MaxFileSize>>20)
	ErrNoPages  = errors.New("syllabus PDF has no pages")
	ErrOffline  = errors.New("backend is offline")
)

// Client is the subset of backend.Client the uploader uses.
type Client interface {
	UploadSyllabus(ctx context.Context, req backend.SyllabusUpload) (*backend.SyllabusResult, error)
}

// Settings supplies the LLM selection.
type Settings interface {
	Config() backend.LLMConfig
	Validate() error
}

// Gate reports backend reachability.
type Gate interface {
	Online() bool
}

// Refresher reloads the topic list after an upload.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures an Uploader. Gate and Topics are optional.
type Options struct {
	Username string
	Settings Settings
	Gate     Gate
	Topics   Refresher
	Logger   *logger.Logger
}

// Uploader checks and posts syllabus files.
type Uploader struct {
	client   Client
	username string
	settings Settings
	gate     Gate
	topics   Refresher
	log      *logger.Logger
}

// New creates an Uploader.
func New(client Client, opts Options) *Uploader {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Uploader{
		client:   client,
		username: opts.Username,
		settings: opts.Settings,
		gate:     opts.Gate,
		topics:   opts.Topics,
		log:      log,
	}
}

// Upload verifies path is a readable PDF, posts it, and refreshes the topic
// list. It returns the topics the backend detected.
func (u *Uploader) Upload(ctx context.Context, path string) (*backend.SyllabusResult, error) {
	pages, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if u.settings != nil {
		if err := u.settings.Validate(); err != nil {
			return nil, err
		}
	}
	if u.gate != nil && !u.gate.Online() {
		return nil, ErrOffline
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open syllabus: %w", err)
	}
	defer f.Close()

	var llm backend.LLMConfig
	if u.settings != nil {
		llm = u.settings.Config()
	}

	u.log.Info("uploading syllabus", "file", filepath.Base(path), "pages", pages)
	res, err := u.client.UploadSyllabus(backend.WithPurpose(ctx, "syllabus"), backend.SyllabusUpload{
		Filename: filepath.Base(path),
		PDF:      f,
		Username: u.username,
		LLM:      llm,
	})
	if err != nil {
		return nil, err
	}

	if u.topics != nil {
		if err := u.topics.Refresh(ctx); err != nil {
			u.log.Warn("refresh topics after upload", "error", err)
		}
	}
	return res, nil
}

// Inspect checks that path names a readable PDF of acceptable size and
// returns its page count.
func Inspect(path string) (pages int, err error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0, ErrNotPDF
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat syllabus: %w", err)
	}
	if info.Size() > MaxFileSize {
		return 0, ErrTooLarge
	}

	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("read pdf: malformed file: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	defer file.Close()

	pages = reader.NumPage()
	if pages == 0 {
		return 0, ErrNoPages
	}
	return pages, nil
}

// Summary formats detected topics for display.
func Summary(filename string, res *backend.SyllabusResult) string {
	names := "None"
	if res != nil && len(res.Topics) > 0 {
		names = strings.Join(res.Topics, ", ")
	}
	return fmt.Sprintf("Syllabus %q uploaded successfully!\nDetected topics: %s", filepath.Base(filename), names)
}
