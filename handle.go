package formdata

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	eng "github.com/reoring/formdata/internal/engine"
	"github.com/reoring/formdata/internal/stream"
)

const defaultContentType = "application/octet-stream"

// handleFile streams an upload to the path chosen by the field's generator.
func (p *processor) handleFile(ctx context.Context, part Part, f *Field, cd ContentDisposition) (Content, error) {
	filename, ok := baseName(cd.Filename)
	if !ok {
		return nil, singleIssue(CodeFilename, nil)
	}
	storedAs, ok := f.gen.NextFilename(guessContentType(part.ContentType(), filename))
	if !ok || storedAs == "" {
		return nil, singleIssue(CodeGenFilename, nil)
	}

	w, err := stream.Open(ctx, storedAs, stream.Options{QueueSize: p.opt.QueueSize})
	if err != nil {
		return nil, p.classify(err, 0)
	}
	p.stored = append(p.stored, storedAs)
	p.log.Debug("streaming upload", zap.String("filename", filename), zap.String("stored_as", storedAs))

	limit := p.form.limits.MaxFileSize
	r := eng.WrapWithEnforcement(part, eng.EnforceOptions{MaxBytes: limit, Code: CodeFileSize})
	err = eng.ReadChunks(r, p.opt.ChunkSize, func(chunk []byte) error {
		_, err := w.Write(chunk)
		return err
	})
	if err != nil {
		// Removal, if any, happens once for the whole submission.
		_ = w.Abort(false)
		return nil, p.classify(err, limit)
	}
	st, err := w.Close()
	if err != nil {
		return nil, p.classify(err, limit)
	}
	return File{Filename: filename, StoredAs: storedAs, Size: st.Size, Checksum: st.Checksum}, nil
}

// handleField aggregates a non-file field in memory and parses it.
func (p *processor) handleField(part Part, f *Field) (Content, error) {
	limit := p.form.limits.MaxFieldSize
	r := eng.WrapWithEnforcement(part, eng.EnforceOptions{MaxBytes: limit, Code: CodeFieldSize})
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, p.classify(err, limit)
	}
	return parseScalar(f.kind, buf.Bytes())
}

func parseScalar(k Kind, b []byte) (Content, error) {
	if k == KindBytes {
		return Bytes(b), nil
	}
	if !utf8.Valid(b) {
		return nil, singleIssue(CodeParseField, nil)
	}
	s := string(b)
	switch k {
	case KindText:
		return Text(s), nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, singleIssue(CodeParseInt, err)
		}
		return Int(n), nil
	case KindFloat:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, singleIssue(CodeParseFloat, err)
		}
		return Float(n), nil
	default:
		return nil, singleIssue(CodeFieldType, nil)
	}
}

// classify maps errors raised while reading a part or writing an upload onto
// issue codes. limit is reported for budget violations.
func (p *processor) classify(err error, limit int64) error {
	if _, ok := AsIssues(err); ok {
		return err
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, newIssue(ie.Code, nil, map[string]any{"max": limit}))
	}
	var se *stream.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case stream.KindMkDir:
			return singleIssue(CodeMkDir, err)
		case stream.KindChannel:
			return singleIssue(CodeChannel, err)
		default:
			return singleIssue(CodeIO, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return singleIssue(CodeCanceled, err)
	}
	return singleIssue(CodeMultipart, err)
}

// baseName strips directory components from a client filename.
func baseName(name string) (string, bool) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	return name, true
}

// guessContentType prefers the declared type and falls back to the filename
// extension.
func guessContentType(declared, filename string) string {
	if declared != "" {
		return declared
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return defaultContentType
}
