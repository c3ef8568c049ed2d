package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/capsentry/capsentry/fsio"
)

// DefaultPath is the policy file location spec.md §6 defaults to absent a
// -policy-file override.
const DefaultPath = "/tmp/node_policy.json"

// Marshal renders the policy as indented, deterministic JSON.
func (p *Policy) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("policy: marshal: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile persists the policy to path, backing up any existing file to
// path+".old" first unless skipBackup is set, per spec.md §6.
func WriteFile(ctx context.Context, reader fsio.Reader, path string, p *Policy, skipBackup bool) error {
	if !skipBackup && reader.Exists(ctx, path) {
		old, err := reader.Read(ctx, path)
		if err != nil {
			return fmt.Errorf("policy: read existing %s for backup: %w", path, err)
		}
		if err := os.WriteFile(path+".old", old, 0o644); err != nil {
			return fmt.Errorf("policy: write backup %s: %w", path, err)
		}
	}

	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("policy: write %s: %w", path, err)
	}
	return nil
}
