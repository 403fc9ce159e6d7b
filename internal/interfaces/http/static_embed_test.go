package http

import (
	"io/fs"
	"testing"
)

func TestEmbeddedStaticFiles(t *testing.T) {
	for _, name := range []string{"static/css/style.css", "static/js/console.js"} {
		if _, err := fs.ReadFile(staticFiles, name); err != nil {
			t.Fatalf("expected embedded asset %s, got error: %v", name, err)
		}
	}
}
