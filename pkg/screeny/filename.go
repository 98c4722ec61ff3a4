package screeny

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const timestampLayout = "20060102_150405"

// BuildFilename renders an output filename from a template. Supported
// placeholders: {domain}, {timestamp}, {index} and {uuid}. The format
// extension is appended unless the rendered name already carries it.
func BuildFilename(rawURL, template string, index int, format Format) string {
	if template == "" {
		template = DefaultOptions().NameTemplate
	}

	name := template
	name = strings.ReplaceAll(name, "{domain}", domainToken(rawURL))
	name = strings.ReplaceAll(name, "{timestamp}", time.Now().Format(timestampLayout))
	name = strings.ReplaceAll(name, "{index}", strconv.Itoa(index))
	if strings.Contains(name, "{uuid}") {
		name = strings.ReplaceAll(name, "{uuid}", uuid.NewString())
	}

	if !strings.HasSuffix(name, format.Extension()) {
		name += format.Extension()
	}
	return name
}

// domainToken derives a filesystem-safe token from the URL host: www. prefix
// stripped, dots replaced with underscores, port separator with a dash.
func domainToken(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.ReplaceAll(host, ".", "_")
	host = strings.ReplaceAll(host, ":", "-")
	host = strings.ReplaceAll(host, "/", "_")
	return strings.ToLower(host)
}
