package helper

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrettyPrint(&buf, map[string]int{"k": 5}))
	assert.Equal(t, "{\n  \"k\": 5\n}\n", buf.String())
}

func TestCompanyYear(t *testing.T) {
	tests := []struct {
		path, company, year string
	}{
		{"data/nvidia-2023.pdf", "NVIDIA", "2023"},
		{"data/google-2022-10k.pdf", "GOOGLE", "2022"},
		{"microsoft-2024.md", "MICROSOFT", "2024.md"},
		{"data/annual.pdf", Unknown, Unknown},
		{"", Unknown, Unknown},
	}
	for _, tt := range tests {
		company, year := CompanyYear(tt.path)
		assert.Equal(t, tt.company, company, tt.path)
		assert.Equal(t, tt.year, year, tt.path)
	}
}

func TestCreateFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateFolder(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, CreateFolder(""))
}
