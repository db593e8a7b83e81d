package api_test

import (
	"context"
	"testing"

	"briefcast/internal/api"
	"briefcast/internal/records"
	"briefcast/internal/tasks"
	"briefcast/internal/testsupport"
)

func newService(t *testing.T) (*api.Service, *records.Store, *tasks.Queue) {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	queue, err := tasks.NewQueue(store.DB())
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	return api.New(api.Deps{Store: store, Scheduler: queue}), store, queue
}

func claimKind(t *testing.T, queue *tasks.Queue) tasks.Kind {
	t.Helper()
	task, err := queue.Claim(context.Background(), "test-worker")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if task == nil {
		t.Fatal("expected a queued task")
	}
	return task.Kind
}

func TestSubmitCreatesAndSchedules(t *testing.T) {
	svc, _, queue := newService(t)
	ctx := context.Background()

	item, scheduled, err := svc.Submit(ctx, "https://youtube.com/watch?v=new")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !scheduled {
		t.Fatal("expected a fresh submission to schedule a run")
	}
	if item.Status != records.StatusPending {
		t.Fatalf("expected pending, got %s", item.Status)
	}
	if kind := claimKind(t, queue); kind != tasks.KindProcessItem {
		t.Fatalf("expected %s task, got %s", tasks.KindProcessItem, kind)
	}
}

func TestSubmitSkipsActiveItem(t *testing.T) {
	svc, store, queue := newService(t)
	ctx := context.Background()

	item, _, err := svc.Submit(ctx, "https://youtube.com/watch?v=active")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	item.Status = records.StatusProcessing
	if err := store.UpdateItem(ctx, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	again, scheduled, err := svc.Submit(ctx, "https://youtube.com/watch?v=active")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if scheduled {
		t.Fatal("a processing item must not be rescheduled")
	}
	if again.ID != item.ID {
		t.Fatalf("expected the existing item, got %d", again.ID)
	}
	pending, err := queue.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if pending != 1 {
		t.Fatalf("expected only the original task, got %d", pending)
	}
}

func TestSubmitSkipsCompletedItem(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	item, _, err := svc.Submit(ctx, "https://youtube.com/watch?v=done")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	item.Status = records.StatusCompleted
	if err := store.UpdateItem(ctx, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	_, scheduled, err := svc.Submit(ctx, "https://youtube.com/watch?v=done")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if scheduled {
		t.Fatal("a completed item must not be reprocessed")
	}
}

func TestSubmitReschedulesFailedItem(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	item, _, err := svc.Submit(ctx, "https://youtube.com/watch?v=retry")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := store.FailItem(ctx, item.ID, "yt-dlp exploded"); err != nil {
		t.Fatalf("FailItem: %v", err)
	}

	resubmitted, scheduled, err := svc.Submit(ctx, "https://youtube.com/watch?v=retry")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !scheduled {
		t.Fatal("a failed item should be rescheduled")
	}
	reloaded, err := store.GetItem(ctx, resubmitted.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if reloaded.Status != records.StatusPending {
		t.Fatalf("expected pending after resubmit, got %s", reloaded.Status)
	}
	if reloaded.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", reloaded.ErrorMessage)
	}
}

func TestSubmitRejectsEmptyURL(t *testing.T) {
	svc, _, _ := newService(t)
	if _, _, err := svc.Submit(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank source url")
	}
}

func TestCreateDigestDefaultsToCompletedItems(t *testing.T) {
	svc, store, queue := newService(t)
	ctx := context.Background()

	for _, url := range []string{
		"https://youtube.com/watch?v=one",
		"https://youtube.com/watch?v=two",
	} {
		item := testsupport.NewItem(t, store, url)
		item.Status = records.StatusCompleted
		if err := store.UpdateItem(ctx, item); err != nil {
			t.Fatalf("UpdateItem: %v", err)
		}
	}
	testsupport.NewItem(t, store, "https://youtube.com/watch?v=still-pending")

	digest, err := svc.CreateDigest(ctx, nil)
	if err != nil {
		t.Fatalf("CreateDigest: %v", err)
	}
	if len(digest.ItemIDs) != 2 {
		t.Fatalf("expected digest over the 2 completed items, got %v", digest.ItemIDs)
	}
	if kind := claimKind(t, queue); kind != tasks.KindComposeDigest {
		t.Fatalf("expected %s task, got %s", tasks.KindComposeDigest, kind)
	}
}

func TestCreateDigestWithoutCompletedItemsFails(t *testing.T) {
	svc, store, _ := newService(t)
	testsupport.NewItem(t, store, "https://youtube.com/watch?v=pending-only")

	if _, err := svc.CreateDigest(context.Background(), nil); err == nil {
		t.Fatal("expected error when no completed items exist")
	}
}

func TestCreateDigestRejectsUnknownItems(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.CreateDigest(context.Background(), []int64{42}); err == nil {
		t.Fatal("expected error for unknown item ids")
	}
}

func TestHealthCountsItemsAndTasks(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	if _, _, err := svc.Submit(ctx, "https://youtube.com/watch?v=health"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	status, err := svc.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status.Items.Total != 1 || status.Items.Pending != 1 {
		t.Fatalf("unexpected item counts: %+v", status.Items)
	}
	if status.PendingTasks != 1 {
		t.Fatalf("expected 1 pending task, got %d", status.PendingTasks)
	}
}
