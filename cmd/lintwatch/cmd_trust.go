// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintwatch/services/validator/trust"
)

// runResetTrust clears the workspace's approved executable so the next
// validation asks for consent again.
func runResetTrust(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(workspaceArg(args))
	if err != nil {
		return err
	}

	store, err := trust.Open(root)
	if err != nil {
		return fmt.Errorf("opening trust store: %w", err)
	}

	previous := store.CheckedPath()
	if err := store.Reset(); err != nil {
		return fmt.Errorf("resetting trust store: %w", err)
	}

	if previous == "" {
		fmt.Println("no approved executable was recorded for", root)
		return nil
	}
	fmt.Printf("forgot approved executable %q for %s\n", previous, root)
	return nil
}
