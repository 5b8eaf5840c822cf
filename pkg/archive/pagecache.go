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
	"container/list"
	"fmt"
	"sync"
)

// PageCache is an LRU cache keyed by object key and page number, capacity in
// bytes. One cache may back the index and data readers of the same archive.
type PageCache struct {
	mu       sync.Mutex
	capacity int
	size     int
	ll       *list.List
	items    map[string]*list.Element
}

type pageEntry struct {
	key  string
	data []byte
}

// NewPageCache creates a cache with capacity in bytes.
func NewPageCache(capacityBytes int) *PageCache {
	if capacityBytes <= 0 {
		capacityBytes = 1
	}
	return &PageCache{
		capacity: capacityBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func pageKey(objectKey string, page int64) string {
	return fmt.Sprintf("%s#%d", objectKey, page)
}

// Get returns a cached page if present.
func (c *PageCache) Get(objectKey string, page int64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[pageKey(objectKey, page)]; ok {
		c.ll.MoveToFront(elem)
		entry := elem.Value.(*pageEntry)
		return entry.data, true
	}
	return nil, false
}

// Set adds or updates a cached page.
func (c *PageCache) Set(objectKey string, page int64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := pageKey(objectKey, page)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*pageEntry)
		c.size -= len(entry.data)
		entry.data = append(entry.data[:0], data...)
		c.size += len(entry.data)
		c.ll.MoveToFront(elem)
		c.evictIfNeeded()
		return
	}
	entry := &pageEntry{
		key:  key,
		data: append([]byte(nil), data...),
	}
	elem := c.ll.PushFront(entry)
	c.items[key] = elem
	c.size += len(entry.data)
	c.evictIfNeeded()
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *PageCache) evictIfNeeded() {
	for c.size > c.capacity && c.ll.Len() > 0 {
		elem := c.ll.Back()
		entry := elem.Value.(*pageEntry)
		delete(c.items, entry.key)
		c.ll.Remove(elem)
		c.size -= len(entry.data)
	}
}
