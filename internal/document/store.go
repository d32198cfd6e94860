package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NoThreadIDReply is the reply recorded on comments that can never be
// posted because the platform gave us no thread id for them.
const NoThreadIDReply = "Skipped: no valid thread_id"

// Load reads a document from path. A missing or malformed file is a hard
// error: the callers must never guess at partial state.
//
// Loading also applies the thread-id guard, so a caller always receives a
// document in which unpostable records are already marked skipped.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed document %s: %w", path, err)
	}
	if err := validateMetadata(doc.Metadata); err != nil {
		return nil, fmt.Errorf("malformed document %s: %w", path, err)
	}

	GuardThreadIDs(&doc)
	return &doc, nil
}

func validateMetadata(m Metadata) error {
	if m.Owner == "" {
		return fmt.Errorf("metadata.owner is missing")
	}
	if m.Repo == "" {
		return fmt.Errorf("metadata.repo is missing")
	}
	if m.PRNumber <= 0 {
		return fmt.Errorf("metadata.pr_number is missing")
	}
	return nil
}

// GuardThreadIDs marks every record without a usable thread id as skipped
// with an explanatory reply. Records already posted or already guarded are
// left untouched, so repeated loads never re-mutate them.
// Returns the number of records newly marked.
func GuardThreadIDs(d *Document) int {
	marked := 0
	for _, c := range d.All() {
		if c.ThreadID != "" || c.Posted() {
			continue
		}
		if c.Status == StatusSkipped && c.Reply == NoThreadIDReply {
			continue
		}
		c.Status = StatusSkipped
		if c.Reply == "" {
			c.Reply = NoThreadIDReply
		}
		marked++
	}
	return marked
}

// Save writes the document atomically: to a temp file in the target
// directory, then renamed over path. A crash mid-write never corrupts an
// existing document.
func Save(d *Document, path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document %s: %w", path, err)
	}
	return nil
}
