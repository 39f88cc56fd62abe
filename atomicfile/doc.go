/*
Package atomicfile replaces a file's content so that readers see either
the old or the new content, never a partial write.

The data goes to a temporary file in the same directory, which is synced and
renamed over the destination on Close. Errors from Write, Sync, Close and
Rename are all reported and the temporary file is removed on failure.

	err := atomicfile.WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})

For more control:

	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = f.Write(data); err != nil {
		return err
	}
	return f.Close()
*/
package atomicfile
