package proxyhttp

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// chunkedReader decodes an HTTP/1.1 chunked transfer-encoded body,
// stopping after the terminating zero-length chunk and its trailing
// CRLF. Trailers, if any, are consumed and discarded.
type chunkedReader struct {
	r         *bufio.Reader
	remaining int64
	done      bool
}

func newChunkedReader(r *bufio.Reader) *chunkedReader {
	return &chunkedReader{r: r}
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.done {
		return 0, io.EOF
	}
	if c.remaining == 0 {
		if err := c.nextChunkSize(); err != nil {
			return 0, err
		}
		if c.done {
			return 0, io.EOF
		}
	}

	max := int64(len(p))
	if max > c.remaining {
		max = c.remaining
	}
	n, err := c.r.Read(p[:max])
	c.remaining -= int64(n)
	if c.remaining == 0 && err == nil {
		// Consume the CRLF following this chunk's data.
		if _, crlfErr := readLine(c.r); crlfErr != nil {
			return n, crlfErr
		}
	}
	return n, err
}

func (c *chunkedReader) nextChunkSize() error {
	line, err := readLine(c.r)
	if err != nil {
		return err
	}
	sizeStr, _, _ := strings.Cut(line, ";")
	size, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 16, 64)
	if err != nil {
		return err
	}
	if size == 0 {
		c.done = true
		for {
			trailer, err := readLine(c.r)
			if err != nil {
				return err
			}
			if trailer == "" {
				return nil
			}
		}
	}
	c.remaining = size
	return nil
}
