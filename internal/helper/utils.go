package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
)

const Unknown = "UNKNOWN"

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %v", err)
	}
	return id.String(), nil
}

// CreateFolder creates dir and its parents if missing
func CreateFolder(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", dir, err)
	}
	return nil
}

// PrettyPrint writes v as indented JSON followed by a newline.
func PrettyPrint(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to pretty print: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// CompanyYear reads "<company>-<year>[-...].pdf" style file names, for
// example data/nvidia-2023.pdf gives NVIDIA and 2023. Names without a dash
// give UNKNOWN for both.
func CompanyYear(sourcePath string) (company, year string) {
	if sourcePath == "" {
		return Unknown, Unknown
	}
	name := path.Base(strings.ReplaceAll(sourcePath, "\\", "/"))
	name = strings.ReplaceAll(name, ".pdf", "")
	parts := strings.Split(name, "-")
	if len(parts) < 2 {
		return Unknown, Unknown
	}
	return strings.ToUpper(parts[0]), parts[1]
}
