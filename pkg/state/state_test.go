package state

import (
	"testing"
	"time"

	"github.com/otairec/otairec/pkg/recorder"
)

func TestSettingsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.LoadSettings(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	want := recorder.Settings{Enabled: true, RecordStats: false, RecordAlarms: true, Directory: "/var/log/otai", Filename: "rec.log"}
	if err := s.SaveSettings(want); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, ok, err := s.LoadSettings()
	if err != nil || !ok {
		t.Fatalf("LoadSettings: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("LoadSettings = %+v, want %+v", got, want)
	}
}

func TestSegments(t *testing.T) {
	s, err := Open("", true)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"c", "a", "b"} {
		seg := Segment{
			Local:      "/var/log/otai/rec.log." + name,
			Remote:     "recordings/host/rec.log." + name + ".zst",
			Size:       int64(100 * (i + 1)),
			Compressed: true,
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.PutSegment(seg); err != nil {
			t.Fatal(err)
		}
	}

	segs, err := s.Segments()
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	for i, want := range []string{"c", "a", "b"} {
		if segs[i].Local != "/var/log/otai/rec.log."+want {
			t.Errorf("segment %d = %s, want upload order", i, segs[i].Local)
		}
	}
}
