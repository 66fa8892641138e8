// Package pdfmerge combines uploaded files into one contract PDF. PDFs are
// merged as-is, images are placed on a page of their own, and anything
// unreadable becomes an error page so one bad upload never sinks the batch.
package pdfmerge

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
)

// InputFile is one uploaded file headed into the merge.
type InputFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

const (
	pageWidthMM  = 215.9 // Letter
	pageHeightMM = 279.4
	pageMarginMM = 15.0
)

// Merge concatenates the inputs, in order, into a single PDF. A file that
// cannot be converted contributes an error page in its slot instead of
// aborting the merge. Merging zero usable parts is an error.
func Merge(files []InputFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, apperrors.Errorf(apperrors.KindParse, "pdfmerge.Merge", "no files to merge")
	}

	parts := make([]io.ReadSeeker, 0, len(files))
	for _, f := range files {
		part, err := preparePart(f)
		if err != nil {
			part, err = errorPage(f.Name, err)
			if err != nil {
				return nil, apperrors.E(apperrors.KindExternal, "pdfmerge.Merge", err)
			}
		}
		parts = append(parts, part)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(parts, &out, false, nil); err != nil {
		return nil, apperrors.E(apperrors.KindExternal, "pdfmerge.Merge", err)
	}
	return out.Bytes(), nil
}

// preparePart turns one input into a single-purpose PDF reader: PDFs are
// validated and passed through, supported images are wrapped in a page.
func preparePart(f InputFile) (io.ReadSeeker, error) {
	switch normalizeMIME(f) {
	case "application/pdf":
		if _, err := api.PageCount(bytes.NewReader(f.Data), nil); err != nil {
			return nil, fmt.Errorf("file is not a readable PDF: %w", err)
		}
		return bytes.NewReader(f.Data), nil
	case "image/png":
		return imagePage(f.Data, "PNG")
	case "image/jpeg":
		return imagePage(f.Data, "JPG")
	default:
		return nil, fmt.Errorf("unsupported file type %q", f.MIMEType)
	}
}

func normalizeMIME(f InputFile) string {
	mime := strings.ToLower(strings.TrimSpace(f.MIMEType))
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	if mime != "" {
		return mime
	}
	// Fall back to the extension when the browser sent no type.
	name := strings.ToLower(f.Name)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	}
	return mime
}

// imagePage renders the image scaled to fit, centered on a Letter page.
func imagePage(data []byte, imageType string) (io.ReadSeeker, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("upload", opts, bytes.NewReader(data))
	if pdf.Err() {
		return nil, pdf.Error()
	}

	maxW := pageWidthMM - 2*pageMarginMM
	maxH := pageHeightMM - 2*pageMarginMM
	w, h := info.Width(), info.Height()
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	if scale > 1 {
		scale = 1
	}
	w *= scale
	h *= scale
	x := (pageWidthMM - w) / 2
	y := (pageHeightMM - h) / 2
	pdf.ImageOptions("upload", x, y, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// errorPage is the in-band failure report: the offending filename in red,
// the reason below it.
func errorPage(fileName string, cause error) (io.ReadSeeker, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(200, 0, 0)
	pdf.MultiCell(0, 8, fmt.Sprintf("Could not process file: %s", fileName), "", "L", false)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 6, cause.Error(), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}
