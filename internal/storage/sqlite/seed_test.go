package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestSeedLoadsFixturesInOrder(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	writeSeedFile(t, dir, "team.json", `[{"id":1,"teamName":"Core","productOwnerUserId":1,"projectManagerUserId":2}]`)
	writeSeedFile(t, dir, "project.json", `[{"id":1,"name":"Apollo","description":"d","startDate":"2026-01-01T00:00:00Z","dueDate":"2026-06-01T00:00:00Z"}]`)
	writeSeedFile(t, dir, "user.json", `[{"userId":1,"cognitoId":"cog-alice","username":"alice","profilePictureUrl":"i1.jpg","teamId":1},{"userId":2,"cognitoId":"cog-bob","username":"bob","profilePictureUrl":"i1.jpg","teamId":1}]`)
	writeSeedFile(t, dir, "task.json", `[{"id":5,"title":"Ship it","status":"To Do","priority":"High","projectId":1,"authorUserId":1,"assignedUserId":2}]`)
	writeSeedFile(t, dir, "comment.json", `[{"id":1,"text":"looks good","taskId":5,"userId":2}]`)
	// attachment.json and task_assignment.json deliberately absent.

	if err := store.Seed(context.Background(), dir); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tasks, err := store.ListTasksByProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Author == nil || tasks[0].Author.Username != "alice" {
		t.Fatalf("expected seeded author, got %+v", tasks[0].Author)
	}
	if len(tasks[0].Comments) != 1 {
		t.Fatalf("expected seeded comment, got %+v", tasks[0].Comments)
	}

	// Seeding again replaces everything instead of duplicating rows.
	if err := store.Seed(context.Background(), dir); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users after reseed, got %d", len(users))
	}
}
