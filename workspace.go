// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package xsort

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// workspace owns the scratch directory holding the
// chunk and merge files of a single run. The directory
// name carries a fresh uuid, so concurrent runs in the
// same temp root never collide.
type workspace struct {
	dir string
	n   int
}

func openWorkspace(root string) (*workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "xsort-"+uuid.NewString())
	err := os.Mkdir(dir, 0750)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

// next issues a fresh scratch file path. Names are
// numbered in issue order across all prefixes.
func (w *workspace) next(prefix, ext string) string {
	w.n++
	return filepath.Join(w.dir, fmt.Sprintf("%s%d%s", prefix, w.n-1, ext))
}

// remove deletes the workspace directory and
// everything inside it.
func (w *workspace) remove() error {
	return os.RemoveAll(w.dir)
}
