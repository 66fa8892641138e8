package pdfmerge

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func smallPDF(t *testing.T, text string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 10, text)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building test PDF: %v", err)
	}
	return buf.Bytes()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("counting pages of merged output: %v", err)
	}
	return n
}

func TestMergeTwoPDFs(t *testing.T) {
	out, err := Merge([]InputFile{
		{Name: "a.pdf", MIMEType: "application/pdf", Data: smallPDF(t, "first")},
		{Name: "b.pdf", MIMEType: "application/pdf", Data: smallPDF(t, "second")},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := pageCount(t, out); got != 2 {
		t.Errorf("merged page count = %d, want 2", got)
	}
}

func TestMergeImageBecomesPage(t *testing.T) {
	out, err := Merge([]InputFile{
		{Name: "scan.png", MIMEType: "image/png", Data: smallPNG(t)},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := pageCount(t, out); got != 1 {
		t.Errorf("merged page count = %d, want 1", got)
	}
}

func TestMergeBadFileYieldsErrorPage(t *testing.T) {
	out, err := Merge([]InputFile{
		{Name: "good.pdf", MIMEType: "application/pdf", Data: smallPDF(t, "good")},
		{Name: "broken.pdf", MIMEType: "application/pdf", Data: []byte("not a pdf")},
		{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hello")},
	})
	if err != nil {
		t.Fatalf("Merge should survive bad inputs, got: %v", err)
	}
	// One real page plus one error page per bad input.
	if got := pageCount(t, out); got != 3 {
		t.Errorf("merged page count = %d, want 3", got)
	}
}

func TestMergeEmptyInputFails(t *testing.T) {
	if _, err := Merge(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestNormalizeMIMEFallsBackToExtension(t *testing.T) {
	tests := []struct {
		name, mime, want string
	}{
		{"a.pdf", "", "application/pdf"},
		{"b.PNG", "", "image/png"},
		{"c.jpeg", "", "image/jpeg"},
		{"d.jpg", "image/jpg", "image/jpeg"},
		{"e.pdf", "application/pdf", "application/pdf"},
	}
	for _, tc := range tests {
		got := normalizeMIME(InputFile{Name: tc.name, MIMEType: tc.mime})
		if got != tc.want {
			t.Errorf("normalizeMIME(%q, %q) = %q, want %q", tc.name, tc.mime, got, tc.want)
		}
	}
}
