package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Content types used for attachments.
const (
	ContentTypePNG      = "image/png"
	ContentTypeText     = "text/plain"
	ContentTypeCSV      = "text/csv"
	ContentTypeJSON     = "application/json"
	ContentTypeMarkdown = "text/markdown"
	ContentTypeSARIF    = "application/sarif+json"
)

// ManifestFile is the name of the manifest Persist writes.
const ManifestFile = "attachments.json"

// Attachment describes an artifact handed to an Attacher. Exactly one of
// Path and Body is normally set.
type Attachment struct {
	ContentType string `json:"contentType"`
	Path        string `json:"path,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Attacher receives side-channel artifacts produced while a report is built,
// such as element screenshots and capture errors.
type Attacher interface {
	Attach(ctx context.Context, name string, a Attachment) error
}

// AttacherFunc adapts a function to the Attacher interface.
type AttacherFunc func(ctx context.Context, name string, a Attachment) error

// Attach calls f.
func (f AttacherFunc) Attach(ctx context.Context, name string, a Attachment) error {
	return f(ctx, name, a)
}

// Discard is an Attacher that drops everything.
var Discard Attacher = AttacherFunc(func(context.Context, string, Attachment) error { return nil })

// Entry is one recorded attachment.
type Entry struct {
	Name string `json:"name"`
	Attachment
}

// Recorder is an Attacher that keeps every attachment in memory.
// It is safe for concurrent use, so one Recorder can serve a whole batch.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach records the attachment.
func (r *Recorder) Attach(_ context.Context, name string, a Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Name: name, Attachment: a})
	return nil
}

// Entries returns a copy of the recorded attachments in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of recorded attachments.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// WriteManifest writes the recorded attachments as an indented JSON array.
func (r *Recorder) WriteManifest(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Entries())
}

// Persist writes inline bodies to files under dir, turning them into path
// attachments, and writes ManifestFile next to them. It returns the
// manifest path.
func (r *Recorder) Persist(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	r.mu.Lock()
	for i, e := range r.entries {
		if e.Body == "" || e.Path != "" {
			continue
		}
		p := filepath.Join(dir, "attachment-"+strconv.Itoa(i+1)+".txt")
		if err := os.WriteFile(p, []byte(e.Body), 0600); err != nil {
			r.mu.Unlock()
			return "", fmt.Errorf("failed to write attachment %q: %w", e.Name, err)
		}
		r.entries[i].Path = p
	}
	r.mu.Unlock()

	manifest := filepath.Join(dir, ManifestFile)
	f, err := os.OpenFile(manifest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment manifest: %w", err)
	}
	defer f.Close()

	if err := r.WriteManifest(f); err != nil {
		return "", fmt.Errorf("failed to write attachment manifest: %w", err)
	}
	return manifest, nil
}
