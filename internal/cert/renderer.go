package cert

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // template decoding
	_ "image/png"  // template decoding
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
)

// Spec is everything one certificate needs. Percent is the already
// rounded score percentage.
type Spec struct {
	Name           string
	Department     string
	Percent        int
	Date           time.Time
	CourseTitle    string
	Issuer         string
	ShowDepartment bool
}

// Renderer composes certificates onto a fixed background template. The
// template's pixel dimensions define the page size; the embedded font
// must cover every script the participant names use (the production
// deployment ships a mixed Latin/CJK face).
type Renderer struct {
	template image.Image
	font     *truetype.Font
}

// NewRenderer decodes the template image and parses the font. Either
// failure is fatal: a renderer never exists in a half-loaded state.
func NewRenderer(templateBytes, fontBytes []byte) (*Renderer, error) {
	img, _, err := image.Decode(bytes.NewReader(templateBytes))
	if err != nil {
		return nil, fmt.Errorf("decode certificate template: %w", err)
	}
	f, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate font: %w", err)
	}
	return &Renderer{template: img, font: f}, nil
}

// line is one text line at a fixed baseline offset from the top of the
// template.
type line struct {
	text string
	size float64
	y    float64
}

func (r *Renderer) lines(spec Spec) []line {
	nameLine := spec.Name
	if spec.ShowDepartment && spec.Department != "" {
		nameLine = fmt.Sprintf("%s (%s)", spec.Name, spec.Department)
	}
	return []line{
		{"This is to certify that", 24, 280},
		{nameLine, 36, 335},
		{fmt.Sprintf("has successfully completed the %s.", spec.CourseTitle), 20, 380},
		{fmt.Sprintf("Date: %s", spec.Date.Format("2006-01-02")), 18, 420},
		{fmt.Sprintf("Score: %d%%", spec.Percent), 18, 460},
		{spec.Issuer, 16, 510},
	}
}

// Render produces the finished certificate as a PNG sized to the
// template. Each line is measured with the embedded font and centered at
// W/2 - width/2, then painted twice: a 1px down-and-right gray shadow
// first, solid black on top, so text stays legible over the photographic
// background.
func (r *Renderer) Render(spec Spec) ([]byte, error) {
	bounds := r.template.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dc := gg.NewContext(w, h)
	dc.DrawImage(r.template, 0, 0)

	for _, ln := range r.lines(spec) {
		if ln.text == "" {
			continue
		}
		face := truetype.NewFace(r.font, &truetype.Options{Size: ln.size})
		dc.SetFontFace(face)
		width, _ := dc.MeasureString(ln.text)
		x := CenterX(float64(w), width)

		dc.SetRGB(0.6, 0.6, 0.6)
		dc.DrawString(ln.text, x+1, ln.y+1)
		dc.SetRGB(0, 0, 0)
		dc.DrawString(ln.text, x, ln.y)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// CenterX returns the horizontal origin that centers a run of the given
// rendered width on a page of the given width.
func CenterX(pageWidth, textWidth float64) float64 {
	return pageWidth/2 - textWidth/2
}

// Filename derives the download name from the participant's name.
func Filename(name string) string {
	return "Certificate-" + name + ".png"
}
