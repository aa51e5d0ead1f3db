package analysis

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadError records a spec file that could not be parsed.
type LoadError struct {
	Filename string
	Err      error
}

// ListFiles walks root and returns every spec file with its size, in
// lexical walk order. A root that is itself a file yields one entry.
func ListFiles(root string) ([]FileInfo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []FileInfo{{Path: root, Size: info.Size()}}, nil
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSpecFile(path) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// LoadSpecs parses every spec file under root. Unparseable files are
// collected as LoadErrors, never a hard failure, so a run can still report
// everything else.
func LoadSpecs(root string) ([]*Spec, []LoadError, error) {
	files, err := ListFiles(root)
	if err != nil {
		return nil, nil, err
	}

	var specs []*Spec
	var invalid []LoadError
	for _, f := range files {
		spec, err := ParseSpec(f.Path)
		if err != nil {
			invalid = append(invalid, LoadError{Filename: f.Path, Err: err})
			continue
		}
		specs = append(specs, spec)
	}
	return specs, invalid, nil
}

// ParseSpec reads and decodes one YAML spec file.
func ParseSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	spec.Filename = path
	return &spec, nil
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}
