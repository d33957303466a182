package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sereven/lmfit/internal/lm"
)

func TestConvergencePNG(t *testing.T) {
	trace := lm.Trace{
		{Iter: 1, SSR: 4.1, MaxAbsGr: 12.5},
		{Iter: 2, SSR: 0.8, MaxAbsGr: 3.1},
		{Iter: 3, SSR: 1.2e-15, MaxAbsGr: 0},
	}

	path := filepath.Join(t.TempDir(), "conv.png")
	if err := ConvergencePNG("expfit (cholesky)", trace, path); err != nil {
		t.Fatalf("ConvergencePNG: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("wrote an empty file")
	}
}
