package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ayusman/drishti/internal/gallery"
	"gopkg.in/yaml.v3"
)

// ImageExtensions are the file types picked up by LoadReferenceDir.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// References is the ordered list of reference images. In YAML it is either
// a mapping of label to path, kept in file order, or a sequence of
// {label, path} objects.
type References []gallery.Reference

// UnmarshalYAML decodes a mapping node pair by pair so file order survives.
func (r *References) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		refs := make(References, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var label, path string
			if err := node.Content[i].Decode(&label); err != nil {
				return fmt.Errorf("line %d: reference label: %w", node.Content[i].Line, err)
			}
			if err := node.Content[i+1].Decode(&path); err != nil {
				return fmt.Errorf("line %d: reference path for %q: %w", node.Content[i+1].Line, label, err)
			}
			refs = append(refs, gallery.Reference{Label: label, Path: path})
		}
		*r = refs
		return nil

	case yaml.SequenceNode:
		var refs []gallery.Reference
		if err := node.Decode(&refs); err != nil {
			return err
		}
		*r = refs
		return nil

	default:
		return fmt.Errorf("line %d: references must be a mapping or a list", node.Line)
	}
}

// ParseRef parses a "Label=path" command-line reference.
func ParseRef(s string) (gallery.Reference, error) {
	label, path, ok := strings.Cut(s, "=")
	label = strings.TrimSpace(label)
	path = strings.TrimSpace(path)
	if !ok || label == "" || path == "" {
		return gallery.Reference{}, fmt.Errorf("invalid reference %q (want Label=path)", s)
	}
	return gallery.Reference{Label: label, Path: path}, nil
}

// LoadReferenceDir returns one reference per image in dir, labelled by the
// file name without its extension, in lexical file name order.
func LoadReferenceDir(dir string) ([]gallery.Reference, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading reference directory: %w", err)
	}

	var refs []gallery.Reference
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !slices.Contains(ImageExtensions, strings.ToLower(ext)) {
			continue
		}
		refs = append(refs, gallery.Reference{
			Label: strings.TrimSuffix(e.Name(), ext),
			Path:  filepath.Join(dir, e.Name()),
		})
	}
	return refs, nil
}
