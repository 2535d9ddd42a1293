package buildtype

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var (
	makeTargetRe = regexp.MustCompile(`^([a-zA-Z0-9][a-zA-Z0-9_.]*):`)
	jobsFlagRe   = regexp.MustCompile(`(?:^|\s)(-?(?:j|l)(?:\s*[0-9]+|\s|$))|(?:^|\s)((?:--)?(?:jobs|load-average)(?:(?:=|\s+)[0-9]+|(?:\s|$)))`)
)

// TargetProbe reports whether the build files in dir define target.
type TargetProbe func(ctx context.Context, dir, target string) bool

// MakeHasTarget asks make for its database of rules in dir and looks for
// target among them.
func MakeHasTarget(ctx context.Context, dir, target string) bool {
	cmd := exec.CommandContext(ctx, "make", "-pn")
	cmd.Dir = dir
	out, _ := cmd.Output()
	for _, line := range strings.Split(string(out), "\n") {
		if m := makeTargetRe.FindStringSubmatch(line); m != nil && m[1] == target {
			return true
		}
	}
	return false
}

// ExtractJobsFlags returns the job and load flags found in args, joined by
// spaces, or "" when there are none.
func ExtractJobsFlags(args string) string {
	var found []string
	for _, m := range jobsFlagRe.FindAllStringSubmatch(args, -1) {
		f := m[1]
		if f == "" {
			f = m[2]
		}
		found = append(found, strings.TrimSpace(f))
	}
	return strings.Join(found, " ")
}

// EnsureMakeJobFlags returns flags with -jN -lN appended, N being the CPU
// count, unless flags or the MAKEFLAGS environment variable already limit
// the jobs.
func EnsureMakeJobFlags(flags []string) []string {
	out := append([]string(nil), flags...)
	if ExtractJobsFlags(strings.Join(flags, " ")) != "" {
		return out
	}
	if ExtractJobsFlags(os.Getenv("MAKEFLAGS")) != "" {
		return out
	}
	n := runtime.NumCPU()
	return append(out, fmt.Sprintf("-j%d", n), fmt.Sprintf("-l%d", n))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// prefixPath derives install prefixes from share directories of the form
// <prefix>/share/<name>, keeping the first occurrence of each.
func prefixPath(shareDirs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range shareDirs {
		p := filepath.Dir(filepath.Dir(d))
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
