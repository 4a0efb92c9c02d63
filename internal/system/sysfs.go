package system

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FS resolves /proc and /sys paths under configurable roots so parsers can
// run against fixture trees.
type FS struct {
	ProcRoot string
	SysRoot  string
}

func DefaultFS() FS {
	return FS{ProcRoot: "/proc", SysRoot: "/sys"}
}

func (f FS) Proc(parts ...string) string {
	return filepath.Join(append([]string{f.ProcRoot}, parts...)...)
}

func (f FS) Sys(parts ...string) string {
	return filepath.Join(append([]string{f.SysRoot}, parts...)...)
}

// ReadString returns the trimmed file content, or "" on any error.
func ReadString(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// ReadUint reads a single unsigned integer file such as a sysfs counter.
func ReadUint(path string) (uint64, bool) {
	raw := ReadString(path)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadInt reads a signed integer file; hwmon temperatures may be negative.
func ReadInt(path string) (int64, bool) {
	raw := ReadString(path)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadHex reads a 0x-prefixed hex file such as a PCI class code.
func ReadHex(path string) (uint64, bool) {
	raw := strings.TrimPrefix(strings.ToLower(ReadString(path)), "0x")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListDir returns sorted entry names, or nil if the directory is unreadable.
func ListDir(path string) []string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}
