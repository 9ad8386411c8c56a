package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	mimemp "mime/multipart"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/formdata"
	"github.com/reoring/formdata/middleware"
	mpsource "github.com/reoring/formdata/source/multipart"
)

// ErrRejected is returned after the issues of a rejected body were printed.
var ErrRejected = errors.New("submission rejected")

type parseOptions struct {
	form     string
	dir      string
	boundary string
	retain   bool
}

func (c *CLI) newParseCommand() *cobra.Command {
	var opt parseOptions
	cmd := &cobra.Command{
		Use:   "parse [body-file]",
		Short: "Run a multipart body through a form and print the resulting value as JSON",
		Example: `  formdata parse --form form.yaml body.bin
  curl ... | formdata parse --form form.yaml --dir uploads --boundary XYZ -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			return c.parse(cmd.Context(), cmd.OutOrStdout(), in, opt)
		},
	}
	cmd.Flags().StringVarP(&opt.form, "form", "f", "", "YAML form declaration")
	cmd.Flags().StringVarP(&opt.dir, "dir", "d", "uploads", "Directory for stored uploads")
	cmd.Flags().StringVarP(&opt.boundary, "boundary", "b", "", "Multipart boundary (read from the first line when empty)")
	cmd.Flags().BoolVar(&opt.retain, "retain-on-error", false, "Keep stored files when the body is rejected")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

func (c *CLI) parse(ctx context.Context, out io.Writer, in io.Reader, opt parseOptions) error {
	form, err := loadForm(opt.form, opt.dir)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}
	br := bufio.NewReader(in)
	boundary := opt.boundary
	var body io.Reader = br
	if boundary == "" {
		boundary, body, err = sniffBoundary(br)
		if err != nil {
			return err
		}
	}

	src := mpsource.New(mimemp.NewReader(body, boundary))
	v, err := formdata.Process(ctx, src, form, formdata.ProcessOpt{Logger: c.logger, RetainOnError: opt.retain})
	if err != nil {
		iss, ok := formdata.AsIssues(err)
		if !ok {
			return err
		}
		if werr := writeJSON(out, middleware.ErrorPayload(iss)); werr != nil {
			return werr
		}
		return ErrRejected
	}

	files := formdata.Files(v)
	var stored int64
	for _, f := range files {
		stored += f.Size
	}
	c.logger.Info("submission accepted",
		zap.Int("files", len(files)),
		zap.String("stored", humanize.Bytes(uint64(stored))))
	return writeJSON(out, v)
}

// sniffBoundary reads the boundary from the body's opening delimiter line and
// returns a reader positioned at the start of the body again.
func sniffBoundary(br *bufio.Reader) (string, io.Reader, error) {
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", nil, err
	}
	b := strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(b, "--") || len(b) == 2 {
		return "", nil, errors.New("body does not start with a multipart delimiter; pass --boundary")
	}
	return b[2:], io.MultiReader(strings.NewReader(line), br), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
