// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/novatechflow/statescan/pkg/statelog"
)

// PairRef locates one archived state-change file pair. Capture nodes upload
// both files into the same directory, so a pair is identified by the common
// key prefix in front of the canonical file names.
type PairRef struct {
	Dir       string
	IndexKey  string
	DataKey   string
	IndexSize int64
	DataSize  int64
}

// FindPairs lists everything under prefix and returns the complete pairs,
// sorted by directory. Directories holding only one half of a pair are
// skipped: a node that has uploaded the data file but not yet the index is
// mid-archive and not scannable.
func FindPairs(ctx context.Context, client ObjectClient, prefix string) ([]PairRef, error) {
	prefix = normalizePrefix(prefix)
	objects, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	byDir := make(map[string]*PairRef)
	for _, obj := range objects {
		dir, name := splitKey(obj.Key)
		ref := byDir[dir]
		if ref == nil {
			ref = &PairRef{Dir: dir}
			byDir[dir] = ref
		}
		switch name {
		case statelog.IndexFileName:
			ref.IndexKey = obj.Key
			ref.IndexSize = obj.Size
		case statelog.DataFileName:
			ref.DataKey = obj.Key
			ref.DataSize = obj.Size
		}
	}

	pairs := make([]PairRef, 0, len(byDir))
	for _, ref := range byDir {
		if ref.IndexKey == "" || ref.DataKey == "" {
			continue
		}
		pairs = append(pairs, *ref)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Dir < pairs[j].Dir })
	return pairs, nil
}

// ResolvePair expects exactly one pair under prefix and returns it. With
// several node directories under the prefix the caller has to point at one,
// so the error names the candidates.
func ResolvePair(ctx context.Context, client ObjectClient, prefix string) (PairRef, error) {
	pairs, err := FindPairs(ctx, client, prefix)
	if err != nil {
		return PairRef{}, err
	}
	switch len(pairs) {
	case 0:
		return PairRef{}, fmt.Errorf("no state-change pair under %q", normalizePrefix(prefix))
	case 1:
		return pairs[0], nil
	}
	dirs := make([]string, len(pairs))
	for i, p := range pairs {
		dirs[i] = p.Dir
	}
	return PairRef{}, fmt.Errorf("%d state-change pairs under %q (%s): set index_key and data_key to choose one",
		len(pairs), normalizePrefix(prefix), strings.Join(dirs, ", "))
}

func normalizePrefix(prefix string) string {
	clean := strings.Trim(prefix, "/")
	if clean == "" {
		return ""
	}
	return clean + "/"
}

// splitKey separates an object key into its directory part (trailing slash
// kept) and base name.
func splitKey(key string) (string, string) {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return "", key
	}
	return key[:idx+1], key[idx+1:]
}
