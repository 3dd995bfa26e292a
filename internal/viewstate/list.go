package viewstate

import (
	"bytes"
	"context"
	"html/template"
	"log"

	"github.com/korjavin/tgclasses/internal/schema"
)

// PartitionRSVPs splits a class's RSVPs into the three disjoint status
// buckets. Counts and rosters are always derived from the snapshot,
// never stored separately.
func PartitionRSVPs(rsvps []schema.RSVP) (yes, no, tentative []schema.RSVP) {
	for _, r := range rsvps {
		switch r.Status {
		case schema.StatusYes:
			yes = append(yes, r)
		case schema.StatusNo:
			no = append(no, r)
		case schema.StatusTentative:
			tentative = append(tentative, r)
		}
	}
	return yes, no, tentative
}

// RefreshList fetches the full collection, replaces the store snapshot
// atomically and rebuilds the list markup from scratch. On failure the
// store is left untouched and the container shows a failure placeholder.
func (e *Engine) RefreshList(ctx context.Context) error {
	classes, err := e.api.ListClasses(ctx)
	if err != nil {
		log.Printf("Failed to fetch classes: %v", err)
		e.mu.Lock()
		e.list.HTML = listLoadFailed
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.store.Replace(classes)
	e.renderListLocked()
	e.mu.Unlock()
	return nil
}

// renderListLocked rebuilds the list container HTML from the current
// snapshot. Caller holds e.mu.
func (e *Engine) renderListLocked() {
	var viewerID int64
	if e.viewer != nil {
		viewerID = e.viewer.ID
	}

	data := listData{
		Edit:      e.editing,
		FormExtra: e.formExtra,
	}
	for _, cls := range e.store.Classes() {
		yes, no, tentative := PartitionRSVPs(cls.RSVPs)
		data.Items = append(data.Items, listItem{
			ID:          cls.ID,
			Topic:       cls.Topic,
			Description: cls.Description,
			TimeText:    cls.ClassTime.Format(displayTimeLayout),
			CreatorName: cls.Creator.FirstName,
			DetailHref:  hashHref(Route{View: ViewDetail, ClassID: cls.ID}.Hash()),
			Yes:         yes,
			No:          no,
			Tentative:   tentative,
			// Ownership only gates what is rendered; the service
			// authorizes the mutations themselves.
			IsOwner: e.viewer != nil && viewerID == cls.Creator.TelegramID,
		})
	}

	var buf bytes.Buffer
	if err := listTmpl.Execute(&buf, data); err != nil {
		log.Printf("Failed to render class list: %v", err)
		e.list.HTML = listLoadFailed
		return
	}
	e.list.HTML = template.HTML(buf.String())
}
