package apply

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"jobgate-engine/internal/browser"
	"jobgate-engine/internal/domain"
)

// capture writes one diagnostic artifact for app: a screenshot, or the page
// HTML when the screenshot fails. It never fails the caller.
func (m *Machine) capture(ctx context.Context, s browser.Session, app *domain.Application, label string) {
	if s == nil {
		return
	}
	dir := filepath.Join(m.ArtifactDir, app.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[apply] artifact dir: %v", err)
		return
	}
	stamp := m.now().Format("20060102T150405")

	art := domain.Artifact{ApplicationID: app.ID, Label: label}
	if png, err := s.Screenshot(ctx); err == nil {
		art.Kind = domain.ArtifactScreenshot
		art.Path = filepath.Join(dir, fmt.Sprintf("%s-%s.png", stamp, label))
		if err := os.WriteFile(art.Path, png, 0o644); err != nil {
			log.Printf("[apply] write screenshot: %v", err)
			return
		}
	} else {
		log.Printf("[apply] screenshot failed id=%s err=%v; saving html", app.ID, err)
		html, herr := s.HTML(ctx)
		if herr != nil {
			log.Printf("[apply] html snapshot failed id=%s err=%v", app.ID, herr)
			return
		}
		art.Kind = domain.ArtifactHTMLSnapshot
		art.Path = filepath.Join(dir, fmt.Sprintf("%s-%s.html", stamp, label))
		if err := os.WriteFile(art.Path, []byte(html), 0o644); err != nil {
			log.Printf("[apply] write html: %v", err)
			return
		}
	}

	art.CreatedAt = m.now()
	if err := m.Store.SaveArtifact(ctx, &art); err != nil {
		log.Printf("[apply] record artifact: %v", err)
	}
}
