package viewstate

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/korjavin/tgclasses/internal/classapi"
	"github.com/korjavin/tgclasses/internal/identity"
	"github.com/korjavin/tgclasses/internal/schema"
)

func TestCreateClassRoundTrip(t *testing.T) {
	eng, fake := newTestEngine(t)
	bindViewer(eng, alice)

	classTime, err := ParseClassTime("2024-01-01T10:00")
	if err != nil {
		t.Fatalf("ParseClassTime() error = %v", err)
	}
	if err := eng.CreateClass(context.Background(), "Algebra", "Numbers", classTime); err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}

	classes := eng.store.Classes()
	if len(classes) != 1 {
		t.Fatalf("list refresh after create has %d classes, want 1", len(classes))
	}
	cls := classes[0]
	if cls.Topic != "Algebra" {
		t.Errorf("topic = %q, want %q", cls.Topic, "Algebra")
	}
	if cls.Creator.TelegramID != 42 {
		t.Errorf("creator telegram id = %d, want 42", cls.Creator.TelegramID)
	}
	if len(cls.RSVPs) != 0 || len(cls.Questions) != 0 {
		t.Errorf("new class should have zero RSVPs and questions, got %d/%d", len(cls.RSVPs), len(cls.Questions))
	}

	if !strings.Contains(string(eng.ListContainer().HTML), "Algebra") {
		t.Error("refreshed list should show the new class")
	}
	if _, _, mutations := fake.counts(); mutations != 1 {
		t.Errorf("create issued %d mutations, want 1", mutations)
	}
}

func TestCreateClassFailureSurfacesDetail(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Existing", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	bindViewer(eng, alice)

	if err := eng.RefreshList(context.Background()); err != nil {
		t.Fatalf("RefreshList() error = %v", err)
	}
	before := eng.store.Classes()

	fake.createFailDetail = "topic required"
	err := eng.CreateClass(context.Background(), "", "", time.Now())
	if err == nil {
		t.Fatal("CreateClass() should fail when the service rejects it")
	}

	if got := eng.TakeNotice(); got != "topic required" {
		t.Errorf("notice = %q, want the server-provided detail %q", got, "topic required")
	}
	if len(eng.store.Classes()) != len(before) {
		t.Error("failed create must leave the store unchanged")
	}
}

func TestCreateClassFallbackMessage(t *testing.T) {
	fake := newFakeService()
	ts := httptest.NewServer(fake.handler())
	eng := NewEngine(classapi.New(ts.URL, 0))
	bindViewer(eng, alice)

	// Detail-less failure: the generic per-action message stands in.
	ts.Close()
	if err := eng.CreateClass(context.Background(), "X", "", time.Now()); err == nil {
		t.Fatal("CreateClass() against a dead service should fail")
	}
	if got := eng.TakeNotice(); got != "Failed to create class" {
		t.Errorf("notice = %q, want the generic create fallback", got)
	}
}

func TestRSVPRefreshesListBuckets(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Algebra", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	bindViewer(eng, bob)

	if err := eng.SubmitRSVP(context.Background(), 1, schema.StatusYes); err != nil {
		t.Fatalf("SubmitRSVP() error = %v", err)
	}

	classes := eng.store.Classes()
	if len(classes) != 1 {
		t.Fatalf("list refresh has %d classes, want 1", len(classes))
	}
	yes, no, tentative := PartitionRSVPs(classes[0].RSVPs)
	if len(yes) != 1 || len(no) != 0 || len(tentative) != 0 {
		t.Fatalf("buckets = %d/%d/%d, want 1/0/0", len(yes), len(no), len(tentative))
	}
	if yes[0].User.TelegramID != 7 {
		t.Errorf("yes bucket member = %d, want 7", yes[0].User.TelegramID)
	}

	if !strings.Contains(string(eng.ListContainer().HTML), "RSVPs: 1 Yes, 0 Tentative") {
		t.Error("list should show the refreshed RSVP summary")
	}
	if got := eng.TakeNotice(); !strings.Contains(got, "successfully RSVPed") {
		t.Errorf("notice = %q, want a success confirmation", got)
	}
}

func TestAskQuestionRefreshesDetailNotList(t *testing.T) {
	eng, fake := newTestEngine(t)
	for i := 0; i < 5; i++ {
		fake.addClass("Filler", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	}
	bindViewer(eng, bob)

	eng.Navigate(context.Background(), "#/class/5")
	listBefore, getBefore, _ := fake.counts()

	if err := eng.AskQuestion(context.Background(), 5, "Do we need a textbook?"); err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}

	listAfter, getAfter, _ := fake.counts()
	if listAfter != listBefore {
		t.Error("question submission must not refresh the list")
	}
	if getAfter != getBefore+1 {
		t.Errorf("question submission did %d detail fetches, want 1", getAfter-getBefore)
	}

	html := string(eng.DetailContainer().HTML)
	if !strings.Contains(html, "Do we need a textbook?") {
		t.Error("detail should show the appended question")
	}
	if !strings.Contains(html, "Bob (@...)") {
		t.Error("detail should show the submitting user as author")
	}
}

func TestQuestionAppendsAtEnd(t *testing.T) {
	eng, fake := newTestEngine(t)
	cls := fake.addClass("Algebra", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	cls.Questions = append(cls.Questions, schema.Question{ID: 1, ClassID: cls.ID, Text: "First?", User: alice})
	bindViewer(eng, bob)

	if err := eng.AskQuestion(context.Background(), cls.ID, "Second?"); err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}

	html := string(eng.DetailContainer().HTML)
	first := strings.Index(html, "First?")
	second := strings.Index(html, "Second?")
	if first == -1 || second == -1 || second < first {
		t.Errorf("questions out of thread order: First@%d Second@%d", first, second)
	}
}

func TestCancelFromDetailResetsNavigation(t *testing.T) {
	eng, fake := newTestEngine(t)
	for i := 0; i < 9; i++ {
		fake.addClass("Filler", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	}
	bindViewer(eng, alice)

	eng.Navigate(context.Background(), "#/class/9")
	if !eng.DetailContainer().Visible {
		t.Fatal("precondition: detail should be visible")
	}

	if err := eng.CancelClass(context.Background(), 9); err != nil {
		t.Fatalf("CancelClass() error = %v", err)
	}

	if got := eng.Route(); got.View != ViewList {
		t.Errorf("route after cancel-from-detail = %+v, want list", got)
	}
	if !eng.ListContainer().Visible || eng.DetailContainer().Visible {
		t.Error("cancel from detail should land on the list view")
	}
	for _, cls := range eng.store.Classes() {
		if cls.ID == 9 {
			t.Error("cancelled class still present after list refresh")
		}
	}
}

func TestCancelFromListStaysOnList(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Algebra", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	fake.addClass("Calculus", "", time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), alice)
	bindViewer(eng, alice)

	eng.Navigate(context.Background(), "")
	if err := eng.CancelClass(context.Background(), 1); err != nil {
		t.Fatalf("CancelClass() error = %v", err)
	}

	if got := eng.Route(); got.View != ViewList {
		t.Errorf("route = %+v, want list", got)
	}
	if got := len(eng.store.Classes()); got != 1 {
		t.Errorf("list has %d classes after cancel, want 1", got)
	}
}

func TestUpdateClassClosesEditAndRefreshes(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Algebra", "Old", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	bindViewer(eng, alice)

	if err := eng.RefreshList(context.Background()); err != nil {
		t.Fatalf("RefreshList() error = %v", err)
	}
	eng.OpenEdit(1)

	newTime, _ := ParseClassTime("2024-06-01T12:00")
	if err := eng.UpdateClass(context.Background(), 1, "Algebra II", "New", newTime); err != nil {
		t.Fatalf("UpdateClass() error = %v", err)
	}

	html := string(eng.ListContainer().HTML)
	if strings.Contains(html, "edit-class-form") {
		t.Error("edit surface should close after a successful update")
	}
	cls := eng.store.Classes()[0]
	if cls.Topic != "Algebra II" || cls.Description != "New" || !cls.ClassTime.Equal(newTime) {
		t.Errorf("update not reflected after refresh: %+v", cls)
	}
}

func TestMutationsRequireIdentity(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Algebra", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)

	ctx := context.Background()
	actions := map[string]func() error{
		"create":   func() error { return eng.CreateClass(ctx, "X", "", time.Now()) },
		"edit":     func() error { return eng.UpdateClass(ctx, 1, "X", "", time.Now()) },
		"cancel":   func() error { return eng.CancelClass(ctx, 1) },
		"rsvp":     func() error { return eng.SubmitRSVP(ctx, 1, schema.StatusYes) },
		"question": func() error { return eng.AskQuestion(ctx, 1, "?") },
	}

	for name, action := range actions {
		t.Run(name, func(t *testing.T) {
			if err := action(); !errors.Is(err, identity.ErrUnavailable) {
				t.Errorf("error = %v, want identity.ErrUnavailable", err)
			}
			if got := eng.TakeNotice(); got != identityUnavailableNotice {
				t.Errorf("notice = %q, want %q", got, identityUnavailableNotice)
			}
		})
	}

	if _, _, mutations := fake.counts(); mutations != 0 {
		t.Errorf("identity-less actions made %d network calls, want 0", mutations)
	}
}

func TestSecondSubmitWhileInFlightIsRejected(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Algebra", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	bindViewer(eng, bob)

	fake.holdMutations = make(chan struct{})
	fake.mutationArrived = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- eng.SubmitRSVP(context.Background(), 1, schema.StatusYes)
	}()
	<-fake.mutationArrived // first submit is now on the wire

	if err := eng.SubmitRSVP(context.Background(), 1, schema.StatusNo); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second submit error = %v, want ErrSubmitInFlight", err)
	}

	close(fake.holdMutations)
	if err := <-done; err != nil {
		t.Fatalf("first submit error = %v", err)
	}

	// A different form is not blocked by this one's guard.
	if _, _, mutations := fake.counts(); mutations != 1 {
		t.Errorf("duplicate submit reached the service: %d mutations, want 1", mutations)
	}
}

func TestInFlightGuardIsPerForm(t *testing.T) {
	eng, fake := newTestEngine(t)
	fake.addClass("Algebra", "", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), alice)
	fake.addClass("Calculus", "", time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), alice)
	bindViewer(eng, bob)

	fake.holdMutations = make(chan struct{})
	fake.mutationArrived = make(chan struct{}, 2)

	first := make(chan error, 1)
	go func() {
		first <- eng.SubmitRSVP(context.Background(), 1, schema.StatusYes)
	}()
	<-fake.mutationArrived

	second := make(chan error, 1)
	go func() {
		second <- eng.SubmitRSVP(context.Background(), 2, schema.StatusTentative)
	}()
	<-fake.mutationArrived // the other class's form submits independently

	close(fake.holdMutations)
	if err := <-first; err != nil {
		t.Fatalf("first submit error = %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second submit error = %v", err)
	}
}
