package media

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
)

// filetype needs at most that many bytes to match
const sniffLen = 262

// Sniff looks at the beginning of the file and returns detected MIME type when
// it contradicts the media type derived from extension. Empty result means
// there is no contradiction or nothing could be detected. Only binary formats
// with reliable signatures are checked.
func Sniff(path string, mt MediaType) (string, error) {
	switch mt {
	case ImageGIF, ImageJPEG, ImagePNG, AudioMPEG:
	default:
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open file for sniffing: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("unable to read file for sniffing: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", nil
	}
	if kind.MIME.Value == mt.String() {
		return "", nil
	}
	return kind.MIME.Value, nil
}
