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
	"strings"
	"sync"
)

// MemoryClient is an in-memory implementation of ObjectClient for
// development/testing.
type MemoryClient struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryClient initializes the in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{objects: make(map[string][]byte)}
}

// PutObject seeds an object; test setup only.
func (m *MemoryClient) PutObject(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
}

func (m *MemoryClient) StatObject(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.objects[key]; ok {
		return int64(len(data)), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
}

func (m *MemoryClient) DownloadRange(ctx context.Context, key string, rng *ByteRange) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if rng == nil {
		return append([]byte(nil), data...), nil
	}
	start := rng.Start
	end := rng.End
	if start < 0 {
		start = 0
	}
	if end >= int64(len(data)) {
		end = int64(len(data)) - 1
	}
	if start > end || start >= int64(len(data)) {
		return nil, fmt.Errorf("object %s range %d-%d invalid", key, rng.Start, rng.End)
	}
	return append([]byte(nil), data[start:end+1]...), nil
}

func (m *MemoryClient) ListObjects(ctx context.Context, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Object, 0)
	for key, data := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, Object{Key: key, Size: int64(len(data))})
	}
	return out, nil
}
