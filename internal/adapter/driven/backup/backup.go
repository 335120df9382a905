package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

// SerializationError reports a backup that could not be parsed or that
// describes an invalid vault.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed backup: %v", e.Err)
	}
	return fmt.Sprintf("malformed backup %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// endMarker closes every backup. A file without it as its last line was
// cut short and is rejected.
var endMarker = []byte("...")

// group and entry define the on-disk field names. They must stay stable
// across versions.
type group struct {
	Name    string  `yaml:"name"`
	URL     *string `yaml:"url,omitempty"`
	Entries []entry `yaml:"entries"`
}

type entry struct {
	Label  string `yaml:"label"`
	Secret string `yaml:"secret"`
}

// Encode serialises a snapshot.
func Encode(snapshot model.Snapshot) ([]byte, error) {
	groups := make([]group, 0, len(snapshot.Groups))
	for _, g := range snapshot.Groups {
		out := group{Name: g.Name, URL: g.URL, Entries: make([]entry, 0, len(g.Entries))}
		for _, e := range g.Entries {
			out.Entries = append(out.Entries, entry{Label: e.Label, Secret: e.Secret})
		}
		groups = append(groups, out)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(groups); err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	buf.Write(endMarker)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses and validates a backup. Empty or truncated input, unknown
// fields, extra documents and invalid groups or entries are rejected with a
// *SerializationError.
func Decode(data []byte) (model.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Snapshot{}, &SerializationError{Err: errors.New("empty document")}
	}
	if !hasEndMarker(data) {
		return model.Snapshot{}, &SerializationError{Err: errors.New("missing end of document marker, file is truncated")}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var groups []group
	if err := dec.Decode(&groups); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Snapshot{}, &SerializationError{Err: errors.New("empty document")}
		}
		return model.Snapshot{}, &SerializationError{Err: err}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected content after the backup document")
		}
		return model.Snapshot{}, &SerializationError{Err: err}
	}

	var snapshot model.Snapshot
	for _, g := range groups {
		gs := model.GroupSnapshot{Name: g.Name, URL: g.URL}
		for _, e := range g.Entries {
			gs.Entries = append(gs.Entries, model.AccountSnapshot{Label: e.Label, Secret: e.Secret})
		}
		snapshot.Groups = append(snapshot.Groups, gs)
	}

	if err := snapshot.Validate(); err != nil {
		return model.Snapshot{}, &SerializationError{Err: err}
	}
	return snapshot, nil
}

// hasEndMarker reports whether the last non-blank line is exactly the
// document end marker.
func hasEndMarker(data []byte) bool {
	data = bytes.TrimRight(data, " \t\r\n")
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	}
	return bytes.Equal(bytes.TrimRight(data, " \t"), endMarker)
}

// WriteFile encodes the snapshot and atomically places it at path. On
// failure any previous file at path is left as it was.
func WriteFile(path string, snapshot model.Snapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write backup %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and decodes the backup at path.
func ReadFile(path string) (model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read backup: %w", err)
	}

	snapshot, err := Decode(data)
	if err != nil {
		var serr *SerializationError
		if errors.As(err, &serr) {
			serr.Path = path
		}
		return model.Snapshot{}, err
	}
	return snapshot, nil
}

// Compile-time interface satisfaction check.
var _ driven.BackupFile = File{}

// File is the driven.BackupFile adapter over WriteFile and ReadFile.
type File struct{}

// WriteFile implements driven.BackupFile.
func (File) WriteFile(path string, snapshot model.Snapshot) error {
	return WriteFile(path, snapshot)
}

// ReadFile implements driven.BackupFile.
func (File) ReadFile(path string) (model.Snapshot, error) {
	return ReadFile(path)
}
