package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rx3lixir/golos/internal/content"
)

// form is a parsed multipart body. Files opened through it stay open until
// close is called.
type form struct {
	r     *http.Request
	files []multipart.File
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, content.NewValidationError("body", "expected multipart/form-data")
	}

	return &form{r: r}, nil
}

// value reports a text field and whether it was sent at all
func (f *form) value(key string) (string, bool) {
	values, ok := f.r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (f *form) optional(key string) *string {
	v, ok := f.value(key)
	if !ok {
		return nil
	}
	return &v
}

func (f *form) flag(key string) (bool, error) {
	v, ok := f.value(key)
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, content.NewValidationError(key, "%s must be a boolean", key)
	}
	return b, nil
}

// upload opens a file field; a missing file is not an error
func (f *form) upload(key string) (*content.Upload, error) {
	file, header, err := f.r.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, content.NewValidationError(key, "failed to read %s", key)
	}
	f.files = append(f.files, file)

	return &content.Upload{
		Body:   file,
		Size:   header.Size,
		Format: strings.TrimPrefix(filepath.Ext(header.Filename), "."),
	}, nil
}

func (f *form) close() {
	for _, file := range f.files {
		file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}
