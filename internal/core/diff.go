package core

import (
	"fmt"
	"strings"

	"gwi.com/changelog-service/internal/gh"
)

// diffBlockSeparator joins per-file blocks. It spans its own lines so it
// cannot collide with anything inside a single block's header fields.
const diffBlockSeparator = "\n\n---\n\n"

// BuildDiffSummary flattens a file-level diff into one text block for
// prompting, preserving file order. It is a pure, lossless transform: no
// truncation or size capping happens here — input limits are the inference
// backend's concern.
func BuildDiffSummary(files []gh.FileDiff) string {
	blocks := make([]string, 0, len(files))
	for _, file := range files {
		blocks = append(blocks, fmt.Sprintf(
			"File: %s\nStatus: %s\nAdditions: %d, Deletions: %d\n\nPatch:\n%s",
			file.Filename, file.Status, file.Additions, file.Deletions, file.Patch))
	}
	return strings.Join(blocks, diffBlockSeparator)
}
