package function

import (
	"context"
	"io"

	"github.com/LucasPickering/slumber/template"
)

func init() {
	register(template.FuncSpec{
		Name: "file",
		Fn:   fileFn,
	})
}

// fileFn implements `file(path)`: reads a file through the render
// context's afero.Fs, an indirection that lets tests substitute
// afero.NewMemMapFs() for a real directory. When the context allows
// streaming, the file is handed back as an open reader rather than fully
// buffered.
func fileFn(ctx context.Context, rc template.Context, args template.Arguments) (template.LazyValue, error) {
	path, err := argString(args, 0, "file")
	if err != nil {
		return template.LazyValue{}, err
	}

	fs := rc.FileSystem()
	if rc.CanStream() {
		f, err := fs.Open(path)
		if err != nil {
			return template.LazyValue{}, template.WrapError(template.KindErrFile, err, "opening file %q", path)
		}
		return template.LazyValue{Kind: template.LazyStream, Stream: f, StreamSource: "file:" + path}, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrFile, err, "opening file %q", path)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return template.LazyValue{}, template.WrapError(template.KindErrFile, err, "reading file %q", path)
	}
	return lazy(template.NewBytes(b)), nil
}
