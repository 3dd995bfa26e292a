package viewstate

import (
	"bytes"
	"context"
	"html/template"
	"log"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer renders class descriptions as markdown. Raw HTML in the
// input is escaped (WithUnsafe is NOT set), so user content cannot
// inject markup.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RefreshDetail fetches one class fresh, bypassing caches, and rebuilds
// the detail container: topic, description, time, creator, owner-only
// controls, the question thread in server order and the ask form tagged
// with the class id. On failure the container shows a placeholder and
// retains no partial data.
func (e *Engine) RefreshDetail(ctx context.Context, id int64) error {
	cls, err := e.api.GetClass(ctx, id)
	if err != nil {
		log.Printf("Failed to fetch class details: %v", err)
		e.mu.Lock()
		e.detail.HTML = detailLoadFailed
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	data := detailData{
		ID:              cls.ID,
		Topic:           cls.Topic,
		DescriptionHTML: renderMarkdown(cls.Description),
		TimeText:        cls.ClassTime.Format(displayTimeLayout),
		CreatorName:     cls.Creator.FirstName,
		IsOwner:         e.viewer != nil && e.viewer.ID == cls.Creator.TelegramID,
		Questions:       cls.Questions,
		BackHref:        hashHref(Route{View: ViewList}.Hash()),
		FormExtra:       e.formExtra,
	}

	var buf bytes.Buffer
	if err := detailTmpl.Execute(&buf, data); err != nil {
		log.Printf("Failed to render class details: %v", err)
		e.detail.HTML = detailLoadFailed
		return err
	}
	e.detail.HTML = template.HTML(buf.String())
	return nil
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		// Fall back to the raw text; html/template escapes it.
		var esc bytes.Buffer
		template.HTMLEscape(&esc, []byte(src))
		return template.HTML(esc.String())
	}
	return template.HTML(buf.String())
}
