package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"carecensus/internal/blob"
	"carecensus/pkg/domain"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// AllFormats lists every supported format in output order.
var AllFormats = []Format{FormatCSV, FormatXML, FormatJSON}

// ErrUnknownFormat is returned for a format outside AllFormats.
var ErrUnknownFormat = errors.New("unknown export format")

// File is one rendered artifact.
type File struct {
	Name        string
	Format      Format
	ContentType string
	Rows        int
	Payload     []byte
}

// ParseFormats splits a comma separated list, lower-cases and de-duplicates
// it. An empty list selects every format.
func ParseFormats(raw string) ([]Format, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]Format(nil), AllFormats...), nil
	}
	return NormalizeFormats(strings.Split(raw, ","))
}

// NormalizeFormats validates and de-duplicates formats, preserving order.
func NormalizeFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return append([]Format(nil), AllFormats...), nil
	}
	out := make([]Format, 0, len(names))
	seen := make(map[Format]struct{}, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatXML, FormatJSON:
		return true
	}
	return false
}

// Render encodes children in the given format. CSV yields one file per table.
func Render(format Format, children []domain.Child) ([]File, error) {
	switch format {
	case FormatCSV:
		tables := Tables(children)
		files := make([]File, 0, len(tables))
		for _, t := range tables {
			payload, err := WriteCSV(t)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", t.Name, err)
			}
			files = append(files, File{Name: t.Name + ".csv", Format: FormatCSV, ContentType: "text/csv", Rows: len(t.Rows), Payload: payload})
		}
		return files, nil
	case FormatXML:
		payload, err := WriteXML(children)
		if err != nil {
			return nil, fmt.Errorf("render xml: %w", err)
		}
		return []File{{Name: "census.xml", Format: FormatXML, ContentType: "application/xml", Rows: len(children), Payload: payload}}, nil
	case FormatJSON:
		if children == nil {
			children = []domain.Child{}
		}
		payload, err := json.MarshalIndent(children, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return []File{{Name: "census.json", Format: FormatJSON, ContentType: "application/json", Rows: len(children), Payload: payload}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// RenderAll renders every requested format in order.
func RenderAll(formats []Format, children []domain.Child) ([]File, error) {
	var files []File
	for _, f := range formats {
		rendered, err := Render(f, children)
		if err != nil {
			return nil, err
		}
		files = append(files, rendered...)
	}
	return files, nil
}

// Publish stores files under prefix. Keys are prefix/name; the store rejects
// keys that already exist.
func Publish(ctx context.Context, store blob.Store, prefix string, files []File) ([]blob.Info, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}
	infos := make([]blob.Info, 0, len(files))
	for _, f := range files {
		key := path.Join(prefix, f.Name)
		info, err := store.Put(ctx, key, bytes.NewReader(f.Payload), blob.PutOptions{
			ContentType: f.ContentType,
			Metadata: map[string]string{
				"format": string(f.Format),
				"rows":   strconv.Itoa(f.Rows),
			},
		})
		if err != nil {
			return infos, fmt.Errorf("store artifact %s: %w", key, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
