package fetch

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Dump writes every response a client receives to a directory, one numbered file per
// exchange, so markup that fails extraction can be inspected afterwards.
type Dump struct {
	directory string
	counter   *atomic.Uint64
}

// NewDump empties the directory and creates it if needed.
func NewDump(dir string) (*Dump, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return nil, err
	}
	return &Dump{directory: dir, counter: &atomic.Uint64{}}, nil
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// request bodies are left out, the login exchange carries the account password.
const exchangeTemplate = `---- REQUEST ----

%s %s

---- RESPONSE ----

%d

%s

%s`

func formatExchange(res *resty.Response) string {
	return fmt.Sprintf(
		exchangeTemplate,
		res.Request.Method, res.Request.URL,
		res.StatusCode(),
		formatHeaders(res.Header()),
		res.String(),
	)
}

func (d *Dump) attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := d.counter.Add(1)
		path := filepath.Join(d.directory, fmt.Sprintf("%04d.txt", id))
		err := os.WriteFile(path, []byte(formatExchange(res)), 0600)
		if err != nil {
			slog.Warn("failed to write http exchange", "path", path, "err", err)
		}
		return nil
	})
}
