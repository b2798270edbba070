package vortex_test

import (
	"testing"

	"vortex-go/internal/vortex"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{`C:\Windows\System32\cmd.exe`, true},
		{`c:\a.exe`, true},
		{`"C:\Program Files\App\app.exe`, true},
		{`\\fileserver\share\tools\psexec.exe`, true},
		{`D:\Users\bob\AppData\Local\Temp\~tmp1.exe`, true},
		{`C:\Users\jürgen\Desktop\übung.exe`, true},
		{``, false},
		{`   `, false},
		{`C:\`, false},
		{`C:\Windows\`, false},
		{`Windows\System32\cmd.exe`, false},
		{`\Windows\System32\cmd.exe`, false},
		{`C:\bad?name.exe`, false},
		{`C:\dir\a|b.exe`, false},
		{`C:/Windows/notepad.exe`, false},
		{`%SystemRoot%\notepad.exe`, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vortex.ValidatePath(tt.path); got != tt.want {
				t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsValidAbsolutePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{`C:\x.exe`, true},
		{`z:/x.exe`, true},
		{`\\srv\share`, true},
		{`\\`, false},
		{`1:\x.exe`, false},
		{`C:x.exe`, false},
		{`\Windows\x.exe`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := vortex.IsValidAbsolutePath(tt.path); got != tt.want {
			t.Errorf("IsValidAbsolutePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStripDriveAndDriveOf(t *testing.T) {
	tests := []struct {
		path     string
		stripped string
		drive    string
		letter   string
		base     string
	}{
		{`C:\tools\x.exe`, `\tools\x.exe`, "C:", "C", "x.exe"},
		{`d:\x.exe`, `\x.exe`, "D:", "D", "x.exe"},
		{`\tools\x.exe`, `\tools\x.exe`, "", "", "x.exe"},
		{`\\srv\share\x.exe`, `\\srv\share\x.exe`, "", "", "x.exe"},
		{`x.exe`, `x.exe`, "", "", "x.exe"},
		{` `, ``, "", "", " "},
	}
	for _, tt := range tests {
		if got := vortex.StripDrive(tt.path); got != tt.stripped {
			t.Errorf("StripDrive(%q) = %q, want %q", tt.path, got, tt.stripped)
		}
		if got := vortex.DriveOf(tt.path); got != tt.drive {
			t.Errorf("DriveOf(%q) = %q, want %q", tt.path, got, tt.drive)
		}
		if got := vortex.DriveLetterOf(tt.path); got != tt.letter {
			t.Errorf("DriveLetterOf(%q) = %q, want %q", tt.path, got, tt.letter)
		}
		if got := vortex.BaseName(tt.path); got != tt.base {
			t.Errorf("BaseName(%q) = %q, want %q", tt.path, got, tt.base)
		}
	}
}

func TestExpandWindowsEnv(t *testing.T) {
	env := map[string]string{
		"SystemRoot":   `C:\Windows`,
		"ProgramFiles": `C:\Program Files`,
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		in   string
		want string
	}{
		{`%SystemRoot%\System32\cmd.exe`, `C:\Windows\System32\cmd.exe`},
		{`%ProgramFiles%\%SystemRoot%`, `C:\Program Files\C:\Windows`},
		{`%UNDEFINED%\x.exe`, `%UNDEFINED%\x.exe`},
		{`100%\x.exe`, `100%\x.exe`},
		{`50% of %SystemRoot%`, `50% of C:\Windows`},
		{`%%`, `%%`},
		{`no tokens`, `no tokens`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := vortex.ExpandWindowsEnv(tt.in, lookup); got != tt.want {
				t.Errorf("ExpandWindowsEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := vortex.ExpandWindowsEnv(`%SystemRoot%`, nil); got != `%SystemRoot%` {
		t.Errorf("nil lookup expanded to %q", got)
	}
}

func TestSubstitutionDrives(t *testing.T) {
	drives := []vortex.Drive{
		{Letter: "A", Type: vortex.DriveRemovable, Ready: true},
		{Letter: "E", Type: vortex.DriveCDROM, Ready: true},
		{Letter: "D", Type: vortex.DriveFixed, Ready: true},
		{Letter: "F", Type: vortex.DriveRemovable, Ready: false},
		{Letter: "C", Type: vortex.DriveFixed, Ready: true},
		{Letter: "Z", Type: vortex.DriveRemote, Ready: true},
	}

	got := vortex.SubstitutionDrives(drives)
	want := []string{"C", "D", "Z", "A"}
	if len(got) != len(want) {
		t.Fatalf("SubstitutionDrives() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SubstitutionDrives() = %v, want %v", got, want)
		}
	}

	fixed := vortex.FixedReadyDrives(drives)
	if len(fixed) != 2 || fixed[0] != "C" || fixed[1] != "D" {
		t.Errorf("FixedReadyDrives() = %v, want [C D]", fixed)
	}
}
