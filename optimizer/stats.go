package optimizer

import (
	"bytes"
	"compress/gzip"
	"math"
	"strconv"
)

// CompressionRate is the percentage size reduction between original and
// optimized. It is 0 when either side is empty.
func CompressionRate(original, optimized string) float64 {
	if original == "" || optimized == "" {
		return 0
	}
	return (1 - float64(len(optimized))/float64(len(original))) * 100
}

// GzipSize returns the gzip-compressed size of s.
func GzipSize(s string) int {
	var buf bytes.Buffer
	zw, _ := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	_, _ = zw.Write([]byte(s))
	_ = zw.Close()
	return buf.Len()
}

var byteUnits = []string{"Bytes", "KB", "MB"}

// FormatBytes renders n with a 1024 base, e.g. "1.5 KB".
func FormatBytes(n int) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// Stats summarises one optimization run.
type Stats struct {
	OriginalSize   int     `json:"originalSize"`
	OptimizedSize  int     `json:"optimizedSize"`
	Rate           float64 `json:"compressionRate"`
	OriginalGzip   int     `json:"originalGzip,omitempty"`
	OptimizedGzip  int     `json:"optimizedGzip,omitempty"`
	OriginalHuman  string  `json:"originalHuman"`
	OptimizedHuman string  `json:"optimizedHuman"`
}

func NewStats(original, optimized string, gzipped bool) Stats {
	s := Stats{
		OriginalSize:   len(original),
		OptimizedSize:  len(optimized),
		Rate:           CompressionRate(original, optimized),
		OriginalHuman:  FormatBytes(len(original)),
		OptimizedHuman: FormatBytes(len(optimized)),
	}
	if gzipped && original != "" {
		s.OriginalGzip = GzipSize(original)
		if optimized != "" {
			s.OptimizedGzip = GzipSize(optimized)
		}
	}
	return s
}
