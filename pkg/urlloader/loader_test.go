package urlloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/root4loot/goscope"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTextFile(t *testing.T) {
	path := writeFile(t, "targets.txt", `https://example.com

# staging hosts
https://staging.example.com/login
not-a-url
ftp://example.com/file
  https://example.org
`)

	urls, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com",
		"https://staging.example.com/login",
		"https://example.org",
	}, urls)
}

func TestLoadCSVFirstColumn(t *testing.T) {
	path := writeFile(t, "targets.csv", `url,owner,notes
https://example.com,alice,landing page
https://example.org,bob
not-a-url,carol,skip me
https://example.net
`)

	urls, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com",
		"https://example.org",
		"https://example.net",
	}, urls)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "file not found")
}

func TestFilterValid(t *testing.T) {
	urls := FilterValid([]string{
		"https://a.example.com",
		"",
		"   ",
		"http://b.example.com",
		"example.com",
		"# https://commented.example.com is not kept",
	})
	require.Equal(t, []string{"https://a.example.com", "http://b.example.com"}, urls)
}

func TestApplyScope(t *testing.T) {
	urls := []string{
		"https://keep.example.com",
		"https://drop.example.com",
	}

	scope := goscope.NewScope()
	scope.AddExclude("drop.example.com")

	kept := ApplyScope(urls, scope)
	require.Equal(t, []string{"https://keep.example.com"}, kept)

	// nil scope passes everything through
	require.Equal(t, urls, ApplyScope(urls, nil))
}
