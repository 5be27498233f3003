// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package trust

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysAnswer(d Decision) Prompter {
	return PrompterFunc(func(ctx context.Context, path string) (Decision, error) {
		return d, nil
	})
}

func TestAuthorize_UserLevelPathIsImplicitlyTrusted(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	prompted := false
	p := PrompterFunc(func(ctx context.Context, path string) (Decision, error) {
		prompted = true
		return DecisionDeny, nil
	})

	ok, err := s.Authorize(context.Background(), "/usr/bin/ansible-lint", false, p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, prompted, "implicitly trusted paths must not prompt")
}

func TestAuthorize_AllowPersists(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	ok, err := s.Authorize(context.Background(), "./bin/lint", true, alwaysAnswer(DecisionAllow))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./bin/lint", s.CheckedPath())

	// A fresh store over the same workspace sees the persisted consent
	// and does not prompt again.
	s2, err := Open(root)
	require.NoError(t, err)
	ok, err = s2.Authorize(context.Background(), "./bin/lint", true, alwaysAnswer(DecisionDeny))
	require.NoError(t, err)
	assert.True(t, ok, "persisted consent must survive restarts")
}

func TestAuthorize_DenyClearsPersistedPath(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	_, err = s.Authorize(context.Background(), "./bin/lint", true, alwaysAnswer(DecisionAllow))
	require.NoError(t, err)

	// The path changed; the new path is denied and the old consent is gone.
	ok, err := s.Authorize(context.Background(), "./bin/other", true, alwaysAnswer(DecisionDeny))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.CheckedPath())
}

func TestAuthorize_DismissalRefusesWithoutError(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	ok, err := s.Authorize(context.Background(), "./bin/lint", true, alwaysAnswer(DecisionNone))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorize_PathChangeReprompts(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	var prompts atomic.Int32
	p := PrompterFunc(func(ctx context.Context, path string) (Decision, error) {
		prompts.Add(1)
		return DecisionAllow, nil
	})

	_, err = s.Authorize(context.Background(), "./bin/v1", true, p)
	require.NoError(t, err)
	_, err = s.Authorize(context.Background(), "./bin/v1", true, p)
	require.NoError(t, err)
	_, err = s.Authorize(context.Background(), "./bin/v2", true, p)
	require.NoError(t, err)

	assert.Equal(t, int32(2), prompts.Load(), "only the unchecked paths prompt")
}

func TestAuthorize_ConcurrentChecksShareOnePrompt(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	var prompts atomic.Int32
	block := make(chan struct{})
	p := PrompterFunc(func(ctx context.Context, path string) (Decision, error) {
		prompts.Add(1)
		<-block
		return DecisionAllow, nil
	})

	const callers = 5
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ok, err := s.Authorize(context.Background(), "./bin/lint", true, p)
			assert.NoError(t, err)
			results[idx] = ok
		}(i)
	}

	// Let the goroutines pile up on the single prompt, then answer it.
	close(block)
	wg.Wait()

	assert.Equal(t, int32(1), prompts.Load(), "concurrent checks must not duplicate the prompt")
	for i, ok := range results {
		assert.True(t, ok, "caller %d should share the allow outcome", i)
	}
}

func TestReset(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	_, err = s.Authorize(context.Background(), "./bin/lint", true, alwaysAnswer(DecisionAllow))
	require.NoError(t, err)
	require.NoError(t, s.Reset())

	assert.Empty(t, s.CheckedPath())

	s2, err := Open(root)
	require.NoError(t, err)
	assert.Empty(t, s2.CheckedPath(), "reset must persist")
}
