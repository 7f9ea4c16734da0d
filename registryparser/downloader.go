// Package registryparser downloads the medicinal products registry CSV report
// and maps it onto entities.Medicine records.
package registryparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// maxFeedSize caps the downloaded report; the full registry is well under this.
const maxFeedSize = 256 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// download fetches the report in a single GET. Any transport failure or
// non-2xx status is an ErrUpstream.
func download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", common.ErrUpstream, url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: download %s: status %d", common.ErrUpstream, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", common.ErrUpstream, err)
	}

	logging.Debug("Registry report downloaded", "url", url, "bytes", len(body))
	return body, nil
}

// decode returns the body as UTF-8. The registry has served both UTF-8 (with
// BOM) and Windows-1250 exports over time.
func decode(body []byte) (io.Reader, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return bytes.NewReader(body), nil
	}

	decoded, err := charmap.Windows1250.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1250 body: %w", err)
	}
	logging.Info("Registry report is not UTF-8, decoded as Windows-1250")
	return bytes.NewReader(decoded), nil
}
