// Package git lists the lines changed in a working tree relative to a ref.
package git

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// Touches reports whether line was added or modified.
func (c ChangedFile) Touches(line int) bool {
	for _, l := range c.ChangedLines {
		if l == line {
			return true
		}
	}
	return false
}

// chunkHeader matches `@@ -oldStart,oldLen +newStart,newLen @@`; only the new side is captured.
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ChangedFiles runs git diff in dir against ref and returns the changed files with absolute
// paths and their added or modified line numbers in the working tree.
func ChangedFiles(ctx context.Context, dir, ref string) ([]ChangedFile, error) {
	top, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	root := strings.TrimSpace(string(top))

	output, err := run(ctx, dir, "diff", "-U0", "--no-color", "--no-ext-diff", ref, "--")
	if err != nil {
		return nil, err
	}

	changes, err := parseDiff(output)
	if err != nil {
		return nil, err
	}
	for i := range changes {
		changes[i].Path = filepath.Join(root, filepath.FromSlash(changes[i].Path))
	}
	return changes, nil
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "git %s failed: %s", args[0], strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var changes []ChangedFile
	var currentFile *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			// diff --git a/path b/path: the b/ side is the working tree
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				if currentFile != nil {
					changes = append(changes, *currentFile)
				}
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil {
			continue
		}

		// Deleted files keep their entry with no lines
		if strings.HasPrefix(line, "@@") {
			matches := chunkHeader.FindStringSubmatch(line)
			if len(matches) < 2 {
				continue
			}
			startLine, err := strconv.Atoi(matches[1])
			if err != nil {
				return nil, errors.Wrapf(err, "bad chunk header %q", line)
			}
			count := 1
			if matches[2] != "" {
				if count, err = strconv.Atoi(matches[2]); err != nil {
					return nil, errors.Wrapf(err, "bad chunk header %q", line)
				}
			}

			// A count of 0 is a pure deletion: no lines exist at this position in the new file
			for i := 0; i < count; i++ {
				currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
			}
		}
	}

	if currentFile != nil {
		changes = append(changes, *currentFile)
	}

	return changes, errors.Wrap(scanner.Err(), "read diff")
}
