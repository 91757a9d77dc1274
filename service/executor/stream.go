package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs/file"

	"github.com/telkar/subshell/model/pipeline"
)

// pipePair is one kernel pipe between two adjacent stages.  Ends are nilled
// out as they are consumed, either closed after the child process holds its
// own copy or handed over to a handler goroutine.
type pipePair struct {
	r *os.File
	w *os.File
}

func newPipePair() (*pipePair, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate pipe: %w", err)
	}
	return &pipePair{r: r, w: w}, nil
}

func (p *pipePair) closeRead() {
	if p != nil && p.r != nil {
		_ = p.r.Close()
		p.r = nil
	}
}

func (p *pipePair) closeWrite() {
	if p != nil && p.w != nil {
		_ = p.w.Close()
		p.w = nil
	}
}

func (p *pipePair) takeRead() *os.File {
	r := p.r
	p.r = nil
	return r
}

func (p *pipePair) takeWrite() *os.File {
	w := p.w
	p.w = nil
	return w
}

// releasePipes closes every pipe end the parent still owns once stage failed
// to spawn.  Closing the read end feeding the failed stage turns upstream
// writes into broken pipes.
func releasePipes(pipes []*pipePair, failed int) {
	if failed > 0 && failed <= len(pipes) {
		pipes[failed-1].closeRead()
	}
	for i := failed; i < len(pipes); i++ {
		pipes[i].closeRead()
		pipes[i].closeWrite()
	}
}

// openInput materialises the chain input endpoint.  A nil reader means no
// input: the null device for processes, an empty stream for handlers.
func (s *Service) openInput(ctx context.Context, endpoint pipeline.Endpoint, dir string) (io.Reader, io.Closer, error) {
	switch endpoint.Kind {
	case pipeline.KindInherit:
		return s.stdin, nil, nil
	case pipeline.KindDiscard:
		return nil, nil, nil
	case pipeline.KindFile:
		f, err := os.Open(resolvePath(dir, endpoint.Path))
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	case pipeline.KindString:
		return strings.NewReader(endpoint.Data), nil, nil
	case pipeline.KindURL:
		data, err := s.fs.DownloadWithURL(ctx, endpoint.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", endpoint.URL, err)
		}
		return bytes.NewReader(data), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported input endpoint %v", endpoint.Kind)
}

// openOutput materialises the chain output endpoint.  A nil writer means the
// output is discarded.  URL sinks buffer in memory and return a finalizer
// that uploads once the stage has exited.
func (s *Service) openOutput(endpoint pipeline.Endpoint, dir string) (io.Writer, io.Closer, func() error, error) {
	switch endpoint.Kind {
	case pipeline.KindInherit:
		return s.stdout, nil, nil, nil
	case pipeline.KindDiscard:
		return nil, nil, nil, nil
	case pipeline.KindFile:
		flags := os.O_CREATE | os.O_WRONLY
		if endpoint.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(resolvePath(dir, endpoint.Path), flags, 0o644)
		if err != nil {
			return nil, nil, nil, err
		}
		return f, f, nil, nil
	case pipeline.KindBuffer:
		return endpoint.Buffer, nil, nil, nil
	case pipeline.KindURL:
		buffer := &bytes.Buffer{}
		URL := endpoint.URL
		finalize := func() error {
			// Detached context; the sink flush must outlive the execute call
			if err := s.fs.Upload(context.Background(), URL, file.DefaultFileOsMode, bytes.NewReader(buffer.Bytes())); err != nil {
				return fmt.Errorf("failed to upload %s: %w", URL, err)
			}
			return nil
		}
		return buffer, nil, finalize, nil
	}
	return nil, nil, nil, fmt.Errorf("unsupported output endpoint %v", endpoint.Kind)
}

func resolvePath(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func closeAll(closers []io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}
