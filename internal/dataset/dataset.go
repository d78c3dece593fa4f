// Package dataset produces the source data for the multiply kernel and
// checks the kernel output.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Defaults used by both example programs.
const (
	DefaultSize        = 1 << 20
	DefaultCoefficient = float32(5432.1)
	DefaultMin         = float32(0)
	DefaultMax         = float32(20)
	DefaultRows        = 20
)

// ErrLengthMismatch is returned by Verify when source and result differ in length.
var ErrLengthMismatch = errors.New("dataset: source and result length differ")

// MismatchError reports the first element that fails verification.
type MismatchError struct {
	Index  int
	Source float32
	Coeff  float32
	Got    float32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dataset: result[%d] = %s, want %s * %s = %s",
		e.Index, formatFloat(e.Got), formatFloat(e.Source), formatFloat(e.Coeff),
		formatFloat(e.Source*e.Coeff))
}

// Scrambled returns n floats drawn uniformly from [lo, hi).
// The same seed always yields the same slice.
func Scrambled(n int, lo, hi float32, seed uint64) []float32 {
	if n <= 0 {
		return nil
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	span := hi - lo
	top := math.Nextafter32(hi, lo)

	out := make([]float32, n)
	for i := range out {
		v := lo + rng.Float32()*span
		if v > top {
			v = top
		}
		out[i] = v
	}
	return out
}

// Multiply is the host reference of the device kernel.
func Multiply(coeff float32, src []float32) []float32 {
	res := make([]float32, len(src))
	for i, v := range src {
		res[i] = v * coeff
	}
	return res
}

// Verify checks that res[i] == src[i] * coeff for every element.
// Equality is exact float32 equality.
func Verify(src, res []float32, coeff float32) error {
	if len(src) != len(res) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(src), len(res))
	}
	for i := range src {
		want := src[i] * coeff
		if res[i] != want {
			return &MismatchError{Index: i, Source: src[i], Coeff: coeff, Got: res[i]}
		}
	}
	return nil
}

// Report writes the first rows elements in the form
//
//	source[i]: 12.345, 	 coeff: 5432.1, 	result[i]: 67060.33
func Report(w io.Writer, src, res []float32, coeff float32, rows int) error {
	rows = min(rows, len(src), len(res))
	c := formatFloat(coeff)
	for i := 0; i < rows; i++ {
		if _, err := fmt.Fprintf(w, "source[%d]: %.03f, \t coeff: %s, \tresult[%d]: %s\n",
			i, src[i], c, i, formatFloat(res[i])); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns a one-line description of a verified run, with grouped
// digits ("1,048,576 elements").
func Summary(n int, coeff float32) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d elements verified: result = source * %s", n, formatFloat(coeff))
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
