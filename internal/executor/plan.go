package executor

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/partforge/internal/naming"
	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/tree"
)

// ErrOutputCollision means two planned artifacts would write the same file.
var ErrOutputCollision = errors.New("output collision")

// artifact is one planned output file.
type artifact struct {
	path string
	file string
	copy int
}

// task is one job with its rendered file first and its copies after.
type task struct {
	job       *tree.Job
	artifacts []artifact
}

// plan formats every output name and checks that no two artifacts share a
// file.
func plan(s *settings.Settings, batches *tree.Batches) ([]*task, error) {
	var tasks []*task
	owners := make(map[string]string)

	for _, dirPath := range batches.Paths() {
		dir := naming.FormatPath(dirPath, s.Naming)
		for _, job := range batches.Jobs(dirPath) {
			t := &task{job: job}
			for n := 1; n <= job.Quantity; n++ {
				name := naming.FileName(job.FileName, s.Naming, job.Extension(), n)
				a := artifact{
					path: path.Join(dir, name),
					file: filepath.Join(s.OutputDir, filepath.FromSlash(dir), name),
					copy: n,
				}
				owner := fmt.Sprintf("%s %q", job.Kind, path.Join(dirPath, job.Name))
				// Case-insensitive filesystems treat "Bolt.stl" and "bolt.stl" as one file.
				key := strings.ToLower(a.file)
				if prev, taken := owners[key]; taken {
					return nil, fmt.Errorf("%w: %s and %s both write %s", ErrOutputCollision, prev, owner, a.path)
				}
				owners[key] = owner
				t.artifacts = append(t.artifacts, a)
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}
