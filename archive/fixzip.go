package archive

import (
	"fmt"

	fixzip "github.com/hidez8891/zip"
)

// FixDataDescriptors copies archive from into to clearing data descriptor
// flag on every entry. Some readers refuse EPUB containers using them.
func FixDataDescriptors(from, to string) (err error) {
	out, err := create(to)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to finalize target file (%s): %w", to, cerr)
		}
	}()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	for _, file := range r.File {
		file.Flags &= ^fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to close target file (%s): %w", to, err)
	}
	return nil
}
