package sources_test

import (
	"os"
	"path/filepath"
	"testing"

	"ai_news_spider/internal/sources"

	"github.com/stretchr/testify/require"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSkipsCommentsAndBlanks(t *testing.T) {
	path := writeSources(t, `# AI news sources
https://one.example.com

https://two.example.com
  # indented comment
https://three.example.com
`)

	sites, err := sources.Load(path, false)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://one.example.com",
		"https://two.example.com",
		"https://three.example.com",
	}, sites)
}

func TestLoadTestModeLimitsToFirstThree(t *testing.T) {
	path := writeSources(t, `https://one.example.com
https://two.example.com
https://three.example.com
https://four.example.com
https://five.example.com
`)

	sites, err := sources.Load(path, true)
	require.NoError(t, err)
	require.Len(t, sites, 3)
	require.Equal(t, "https://three.example.com", sites[2])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := sources.Load(filepath.Join(t.TempDir(), "missing.txt"), false)
	require.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	sites, err := sources.Load(writeSources(t, ""), false)
	require.NoError(t, err)
	require.Empty(t, sites)
}
