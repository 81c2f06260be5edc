package stats

import (
	"os"
	"path/filepath"
	"testing"

	"qlearn/internal/model"
)

func TestWriteRunArtifactsRoundTrip(t *testing.T) {
	base := t.TempDir()
	episodes := []model.EpisodeRecord{
		{Episode: 1, Steps: 7, Return: -0.07, Truncated: true, MeanAbsTDError: 0.01},
		{Episode: 2, Steps: 3, Return: 0.98, Terminated: true, MeanAbsTDError: 0.125},
	}
	run := model.RunRecord{RunID: "run-1", Environment: "chain", Episodes: 2}

	dir, err := WriteRunArtifacts(base, RunArtifacts{Run: run, Episodes: episodes, Summary: Summarize(episodes, 0)})
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if dir != filepath.Join(base, "run-1") {
		t.Fatalf("unexpected run dir %s", dir)
	}
	for _, name := range []string{"run.json", "summary.json", "episodes.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	loaded, ok, err := ReadEpisodes(base, "run-1")
	if err != nil || !ok {
		t.Fatalf("read episodes: ok=%v err=%v", ok, err)
	}
	if len(loaded) != 2 || loaded[0] != episodes[0] || loaded[1] != episodes[1] {
		t.Fatalf("unexpected episodes: %+v", loaded)
	}

	gotRun, ok, err := ReadRunRecord(base, "run-1")
	if err != nil || !ok || gotRun.Environment != "chain" {
		t.Fatalf("read run: %+v ok=%v err=%v", gotRun, ok, err)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	if _, ok, err := ReadEpisodes(t.TempDir(), "nope"); ok || err != nil {
		t.Fatalf("expected not found, ok=%v err=%v", ok, err)
	}
	if _, ok, err := ReadRunRecord(t.TempDir(), "nope"); ok || err != nil {
		t.Fatalf("expected not found, ok=%v err=%v", ok, err)
	}
}
