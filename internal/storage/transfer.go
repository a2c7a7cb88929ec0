/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"travelcanvas/internal/domain"
)

// BackupsDirName is created next to an export file to hold previous versions.
const BackupsDirName = "backups"

//go:embed schema/nodes.schema.json
var exportSchema []byte

// SchemaError lists the schema violations of an import document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "import does not match schema: " + strings.Join(e.Problems, "; ")
}

// ExportJSON writes nodes as an indented JSON array.
func ExportJSON(w io.Writer, nodes []domain.Node) error {
	if nodes == nil {
		nodes = []domain.Node{}
	}
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ImportJSON reads a JSON array of nodes, validated against the export schema.
// Field level checks beyond the schema are left to the store.
func ImportJSON(r io.Reader) ([]domain.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	return decodeExport(data)
}

func decodeExport(data []byte) ([]domain.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("import is empty")
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(exportSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		se := &SchemaError{}
		for _, e := range result.Errors() {
			se.Problems = append(se.Problems, e.String())
		}
		return nil, se
	}
	var nodes []domain.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	return nodes, nil
}

// WriteExportFile writes nodes to path with transactional semantics and a
// timestamped backup of the previous file (if present).
func WriteExportFile(path string, nodes []domain.Node) error {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, nodes); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure export dir: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", name, stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current export: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", name, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, buf.Bytes()); werr != nil {
		return fmt.Errorf("write temp export: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace export: %w", rerr)
	}
	return nil
}

// ReadExportFile imports path. If the file cannot be read or parsed it falls
// back to the latest backup written by WriteExportFile.
func ReadExportFile(path string) ([]domain.Node, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		nodes, perr := decodeExport(data)
		if perr == nil {
			return nodes, nil
		}
		err = perr
	}
	nodes, berr := readLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("read %s: %w; backup attempt: %v", filepath.Base(path), err, berr)
	}
	return nodes, nil
}

func readLatestBackup(path string) ([]domain.Node, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	prefix := filepath.Base(path) + "."
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	return decodeExport(b)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
