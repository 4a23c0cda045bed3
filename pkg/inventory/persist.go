package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Outcome reports how a Load or Save went. Persistence problems are never
// returned as errors; they are logged and summarised here.
type Outcome int

const (
	// OutcomeOK means the file was read and applied, or written.
	OutcomeOK Outcome = iota
	// OutcomeMissing means Load found no file at the path.
	OutcomeMissing
	// OutcomeInvalid means Load parsed the file but it was not a flat object.
	OutcomeInvalid
	// OutcomeFailed means an I/O or parse error occurred.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeMissing:
		return "missing"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Load replaces the store's contents with the mapping stored at path
// (DefaultPath when empty).
//
// Keys that are not text, or that Add could never create (empty or invalid
// UTF-8), are dropped and values that cannot be read as integers become 0,
// each with a warning. Unlike Add and Remove, Load keeps such zero or
// negative entries as they are. On any failure the store is
// left exactly as it was.
func (s *Store) Load(path string) Outcome {
	if path == "" {
		path = DefaultPath
	}

	data, err := readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("File %s not found; starting with empty inventory", path)
			return OutcomeMissing
		}
		s.logger.Errorf("Failed to load inventory from %s: %v", path, err)
		return OutcomeFailed
	}

	c := codecFor(path)
	fields, err := c.Decode(data)
	if err != nil {
		if errors.Is(err, errNotMapping) {
			s.logger.Warnf("Inventory file %s did not contain an object; skipping load", path)
			return OutcomeInvalid
		}
		s.logger.Errorf("Failed to load inventory from %s (%s): %v", path, c.Name(), err)
		return OutcomeFailed
	}

	cleaned := make(map[string]int, len(fields))
	for _, f := range fields {
		if !f.IsText {
			s.logger.Warnf("Skipping non-string key in inventory: %q", f.Key)
			continue
		}
		if !validItem(f.Key) {
			s.logger.Warnf("Skipping invalid item name in inventory: %q", f.Key)
			continue
		}
		qty, ok := coerceQuantity(f.Value)
		if !ok {
			s.logger.Warnf("Non-integer qty for %s; setting to 0", f.Key)
		}
		cleaned[f.Key] = qty
	}

	s.replace(cleaned)
	s.logger.Infof("Loaded inventory from %s (%s)", path, c.Name())
	return OutcomeOK
}

// Save writes the store to path (DefaultPath when empty) with sorted keys.
// The file is written next to its destination and renamed into place.
func (s *Store) Save(path string) Outcome {
	if path == "" {
		path = DefaultPath
	}

	c := codecFor(path)
	data, err := c.Encode(s.snapshot())
	if err != nil {
		s.logger.Errorf("Failed to save inventory to %s (%s): %v", path, c.Name(), err)
		return OutcomeFailed
	}

	if err := writeFileAtomic(path, data); err != nil {
		s.logger.Errorf("Failed to save inventory to %s: %v", path, err)
		return OutcomeFailed
	}

	s.logger.Infof("Saved inventory to %s (%s)", path, c.Name())
	return OutcomeOK
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp inventory file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
