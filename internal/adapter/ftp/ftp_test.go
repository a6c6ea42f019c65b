package ftp

import (
	"context"
	"errors"
	"net/textproto"
	"testing"

	"github.com/Ning0612/mistergen/internal/domain"
)

// fakeConn emulates a server with a fixed set of directories
type fakeConn struct {
	dirs     map[string][]string
	cwd      string
	broken   bool
	quitted  bool
	cwdCalls []string
}

func (f *fakeConn) ChangeDir(p string) error {
	f.cwdCalls = append(f.cwdCalls, p)
	if f.broken {
		return errors.New("connection reset by peer")
	}
	if _, ok := f.dirs[p]; !ok {
		return &textproto.Error{Code: 550, Msg: "Failed to change directory."}
	}
	f.cwd = p
	return nil
}

func (f *fakeConn) CurrentDir() (string, error) {
	return f.cwd, nil
}

func (f *fakeConn) NameList(p string) ([]string, error) {
	if f.broken {
		return nil, errors.New("broken pipe")
	}
	names, ok := f.dirs[p]
	if !ok {
		return nil, &textproto.Error{Code: 550, Msg: "No such directory."}
	}
	if len(names) == 0 {
		return nil, &textproto.Error{Code: 450, Msg: "No files found"}
	}
	return names, nil
}

func (f *fakeConn) Quit() error {
	f.quitted = true
	return nil
}

func newFake() *fakeConn {
	return &fakeConn{
		cwd: "/",
		dirs: map[string][]string{
			"/":                     {"media"},
			"/media":                {"fat"},
			"/media/fat":            {"games"},
			"/media/fat/games":      {"/media/fat/games/NES", "SNES", ".", ".."},
			"/media/fat/games/NES":  {"Game1.nes"},
			"/media/fat/games/SNES": {},
		},
	}
}

func TestSession_ChangeDirTracksPosition(t *testing.T) {
	ctx := context.Background()
	s, err := newSession(newFake())
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}

	if err := s.ChangeDir(ctx, "/media/fat/games"); err != nil {
		t.Fatalf("ChangeDir() error = %v", err)
	}
	if err := s.ChangeDir(ctx, "NES"); err != nil {
		t.Fatalf("relative ChangeDir() error = %v", err)
	}
	cwd, _ := s.CurrentDir(ctx)
	if cwd != "/media/fat/games/NES" {
		t.Errorf("cwd = %q, want /media/fat/games/NES", cwd)
	}

	if err := s.ChangeDir(ctx, ".."); err != nil {
		t.Fatalf("ChangeDir(..) error = %v", err)
	}
	cwd, _ = s.CurrentDir(ctx)
	if cwd != "/media/fat/games" {
		t.Errorf("cwd after .. = %q, want /media/fat/games", cwd)
	}
}

func TestSession_ChangeDirFailureKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(newFake())
	s.ChangeDir(ctx, "/media/fat/games")

	err := s.ChangeDir(ctx, "/media/fat/games/NES/Game1.nes")
	if !errors.Is(err, domain.ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
	cwd, _ := s.CurrentDir(ctx)
	if cwd != "/media/fat/games" {
		t.Errorf("cwd moved to %q after failed CWD", cwd)
	}
}

func TestSession_TransportErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s, _ := newSession(fake)
	fake.broken = true

	if err := s.ChangeDir(ctx, "/media"); !errors.Is(err, domain.ErrConnectionFatal) {
		t.Errorf("ChangeDir: expected ErrConnectionFatal, got %v", err)
	}
	if _, err := s.NameList(ctx, "/media"); !errors.Is(err, domain.ErrConnectionFatal) {
		t.Errorf("NameList: expected ErrConnectionFatal, got %v", err)
	}
}

func TestSession_NameList(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(newFake())

	names, err := s.NameList(ctx, "/media/fat/games")
	if err != nil {
		t.Fatalf("NameList() error = %v", err)
	}
	want := []string{"NES", "SNES"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	empty, err := s.NameList(ctx, "/media/fat/games/SNES")
	if err != nil {
		t.Fatalf("NameList(empty) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty listing, got %v", empty)
	}

	if _, err := s.NameList(ctx, "/nope"); !errors.Is(err, domain.ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory for missing dir, got %v", err)
	}
}

func TestSession_CancelledContext(t *testing.T) {
	fake := newFake()
	s, _ := newSession(fake)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.ChangeDir(ctx, "/media"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(fake.cwdCalls) != 0 {
		t.Errorf("no CWD should be sent after cancellation, sent %v", fake.cwdCalls)
	}
}

func TestSession_Close(t *testing.T) {
	fake := newFake()
	s, _ := newSession(fake)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.quitted {
		t.Error("Close() should send QUIT")
	}
}

func TestOptions_Addr(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{Host: "192.168.2.56"}, "192.168.2.56:21"},
		{Options{Host: "mister.local", Port: 2121}, "mister.local:2121"},
		{Options{Host: "::1", Port: 21}, "[::1]:21"},
	}
	for _, tt := range tests {
		if got := tt.opts.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestDial_EmptyHost(t *testing.T) {
	_, err := Dial(context.Background(), Options{})
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"550 not a directory", &textproto.Error{Code: 550, Msg: "Failed to change directory."}, domain.ErrNotDirectory},
		{"553 bad name", &textproto.Error{Code: 553, Msg: "Bad file name."}, domain.ErrNotDirectory},
		{"450 on cwd", &textproto.Error{Code: 450, Msg: "Busy"}, domain.ErrPermissionDenied},
		{"421 closing", &textproto.Error{Code: 421, Msg: "Timeout."}, domain.ErrConnectionFatal},
		{"transport", errors.New("connection reset by peer"), domain.ErrConnectionFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError("cwd /x", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_NameList450IsEmpty(t *testing.T) {
	fake := newFake()
	s, _ := newSession(fake)

	// 450 from NLST means an empty directory, not a refusal
	names, err := s.NameList(context.Background(), "/media/fat/games/SNES")
	if err != nil {
		t.Fatalf("NameList() error = %v", err)
	}
	if names != nil {
		t.Errorf("names = %v, want none", names)
	}
}
